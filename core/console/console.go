package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// EventType classifies a progress event.
type EventType string

const (
	// EventCallAttempt is emitted before each remote call attempt.
	EventCallAttempt EventType = "call_attempt"
	// EventCallRetry is emitted when an attempt failed transiently and will be retried.
	EventCallRetry EventType = "call_retry"
	// EventCallFailed is emitted when a call has permanently failed.
	EventCallFailed EventType = "call_failed"
	// EventCallSucceeded is emitted when a call completed successfully.
	EventCallSucceeded EventType = "call_succeeded"
	// EventCallSimulated is emitted when dry-run mode suppressed a mutating call.
	EventCallSimulated EventType = "call_simulated"
	// EventItemSkipped is emitted when a batch item was skipped as benign.
	EventItemSkipped EventType = "item_skipped"
	// EventPhaseStarted is emitted when a sync phase begins.
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseFinished is emitted when a sync phase ends.
	EventPhaseFinished EventType = "phase_finished"
)

// Event is a single progress notification. The zero value of optional
// fields (Attempt, Err) means "not applicable".
type Event struct {
	// Type classifies the event.
	Type EventType
	// Phase names the sync phase the event belongs to, if any.
	Phase string
	// Op names the remote operation (e.g. "delete_entity").
	Op string
	// Target identifies the item the operation applies to.
	Target string
	// Attempt is the 1-based attempt number for call events.
	Attempt int
	// Detail carries a human-readable note (e.g. the would-be request in dry-run).
	Detail string
	// Err is the error associated with retry/failure events.
	Err error
}

// Reporter receives progress events. Implementations must be safe to call
// from the single sequential control flow; no concurrency guarantees are
// required.
type Reporter interface {
	Report(e Event)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ZapReporter renders events through a zap logger.
type ZapReporter struct {
	log *zap.Logger
}

// NewZapReporter creates a Reporter backed by the given logger.
func NewZapReporter(l *zap.Logger) *ZapReporter {
	return &ZapReporter{log: l}
}

// Report logs the event at a level matching its severity.
func (r *ZapReporter) Report(e Event) {
	fields := make([]zap.Field, 0, 6)
	if e.Phase != "" {
		fields = append(fields, zap.String("phase", e.Phase))
	}
	if e.Op != "" {
		fields = append(fields, zap.String("op", e.Op))
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", e.Attempt))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	switch e.Type {
	case EventCallFailed:
		r.log.Warn(string(e.Type), fields...)
	case EventCallRetry, EventItemSkipped:
		r.log.Info(string(e.Type), fields...)
	case EventCallAttempt:
		r.log.Debug(string(e.Type), fields...)
	default:
		r.log.Info(string(e.Type), fields...)
	}
}

// NopReporter discards all events.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Event) {}

// StdinConfirmer prompts on the terminal and reads the operator's answer.
// When AutoYes is set (the --yes flag), every prompt is accepted without
// interaction.
type StdinConfirmer struct {
	// AutoYes accepts every prompt without reading input.
	AutoYes bool
	// In defaults to os.Stdin.
	In io.Reader
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Confirm prints the prompt and returns true only if the operator types "yes".
func (c *StdinConfirmer) Confirm(prompt string) bool {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	if c.AutoYes {
		fmt.Fprintln(out, "\n✓ Auto-confirmed via --yes flag")
		return true
	}

	in := c.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(out, "\n%s\n⚠️  Type 'yes' to confirm destructive actions: ", prompt)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
