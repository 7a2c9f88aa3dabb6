package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	// KindTransient marks failures worth retrying (network errors, 5xx, 429).
	KindTransient ErrorKind = "transient"
	// KindNotFound marks items that are already absent on the remote side.
	KindNotFound ErrorKind = "not_found"
	// KindAuth marks authentication failures (401/403). These halt the whole
	// run: the captured credentials have expired and every further call
	// would fail the same way.
	KindAuth ErrorKind = "auth"
	// KindMalformed marks responses that could not be parsed, or statuses
	// the client has no mapping for. Fatal for the item, not for the batch.
	KindMalformed ErrorKind = "malformed"
)

// CallError is the error type produced by every failed remote call.
type CallError struct {
	// Kind drives retry and batch-continuation decisions.
	Kind ErrorKind
	// Op names the remote operation (e.g. "delete_entity").
	Op string
	// Status is the HTTP status code, if one was received.
	Status int
	// Err is the underlying cause, if any.
	Err error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// FromStatus maps an HTTP status code to a classified CallError.
func FromStatus(op string, status int, detail string) *CallError {
	var kind ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		kind = KindTransient
	default:
		kind = KindMalformed
	}
	var err error
	if detail != "" {
		err = errors.New(detail)
	}
	return &CallError{Kind: kind, Op: op, Status: status, Err: err}
}

// Malformed wraps an unparseable-response error. It is never retried.
func Malformed(op string, err error) *CallError {
	return &CallError{Kind: KindMalformed, Op: op, Err: err}
}

// Transient wraps a network-level error as retryable.
func Transient(op string, err error) *CallError {
	return &CallError{Kind: KindTransient, Op: op, Err: err}
}

// KindOf returns the classification of err, or "" if it is not a CallError.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsNotFound reports whether err means the item is already absent.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsMalformed reports whether err is an unparseable or unmapped response.
func IsMalformed(err error) bool { return KindOf(err) == KindMalformed }
