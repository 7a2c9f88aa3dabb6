package batch

import (
	"context"
	"errors"

	"alexa-manager/core/console"
	"alexa-manager/core/remote"
)

// ErrSkip marks an action that decided not to run for a benign reason
// (e.g. deletions disabled by configuration). Wrap it to explain the skip.
var ErrSkip = errors.New("skipped")

// OutcomeKind is the per-item result of a batch operation.
type OutcomeKind string

const (
	// OutcomeSucceeded means the remote call completed.
	OutcomeSucceeded OutcomeKind = "succeeded"
	// OutcomeSkipped means the item needed no call: the target was already
	// absent, or dry-run mode simulated the call.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed means the call failed permanently for this item.
	OutcomeFailed OutcomeKind = "failed"
)

// Status is the overall result of a batch.
type Status string

const (
	// StatusCompleted means every item was attempted. Individual items may
	// still have failed; callers inspect the outcomes.
	StatusCompleted Status = "completed"
	// StatusDeclined means the operator rejected the confirmation prompt.
	// No calls were issued.
	StatusDeclined Status = "declined"
	// StatusAborted means a fatal error (expired credentials, cancelled
	// context) stopped the batch before all items were attempted.
	StatusAborted Status = "aborted"
)

// Outcome records what happened to a single batch item.
type Outcome[T any] struct {
	// Item is the batch element this outcome belongs to.
	Item T
	// Kind classifies the outcome.
	Kind OutcomeKind
	// Reason explains skips and failures.
	Reason string
}

// Result aggregates the per-item outcomes of one batch invocation.
type Result[T any] struct {
	// Phase names the sync phase the batch ran in.
	Phase string
	// Status is the overall batch status.
	Status Status
	// Outcomes holds one entry per attempted item, in processing order.
	// Items after a fatal abort are absent: they were never attempted.
	Outcomes []Outcome[T]
}

// Succeeded returns the number of completed items.
func (r *Result[T]) Succeeded() int { return r.count(OutcomeSucceeded) }

// Skipped returns the number of benign or simulated skips.
func (r *Result[T]) Skipped() int { return r.count(OutcomeSkipped) }

// Failed returns the number of permanently failed items.
func (r *Result[T]) Failed() int { return r.count(OutcomeFailed) }

// OK reports whether the batch ran to completion. Item-local failures do
// not make a batch not-OK; only a decline or a fatal abort does.
func (r *Result[T]) OK() bool { return r.Status == StatusCompleted }

func (r *Result[T]) count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Options controls a single batch invocation.
type Options struct {
	// Phase names the sync phase for reporting.
	Phase string
	// Confirm gates the batch behind an operator prompt.
	Confirm bool
	// Prompt is the human-readable description of the pending batch shown
	// when Confirm is set.
	Prompt string
	// DryRun marks successful actions as simulated skips.
	DryRun bool
}

// Executor applies an action across a collection of items, sequentially.
// Concurrency is deliberately absent: the remote rate limit makes parallel
// calls counterproductive and interleaved partial failures are hard to
// attribute.
type Executor struct {
	confirmer console.Confirmer
	reporter  console.Reporter
}

// NewExecutor creates an Executor with the given operator capabilities.
func NewExecutor(c console.Confirmer, r console.Reporter) *Executor {
	if r == nil {
		r = console.NopReporter{}
	}
	return &Executor{confirmer: c, reporter: r}
}

// Run applies action to every item in order.
//
// A declined confirmation cancels the batch before any call is issued. An
// authentication failure aborts immediately: the remaining items are never
// attempted, since every call would burn through retries against expired
// credentials. All other per-item failures are recorded and processing
// continues with the next item.
func Run[T any](ctx context.Context, ex *Executor, items []T, describe func(T) string, action func(context.Context, T) error, opts Options) Result[T] {
	res := Result[T]{Phase: opts.Phase, Status: StatusCompleted}

	if len(items) == 0 {
		return res
	}

	// Dry-run batches need no gate: nothing destructive will be sent.
	if opts.Confirm && !opts.DryRun {
		if ex.confirmer == nil || !ex.confirmer.Confirm(opts.Prompt) {
			res.Status = StatusDeclined
			return res
		}
	}

	for _, item := range items {
		err := action(ctx, item)

		if err == nil {
			kind := OutcomeSucceeded
			reason := ""
			if opts.DryRun {
				kind = OutcomeSkipped
				reason = "simulated"
			}
			res.Outcomes = append(res.Outcomes, Outcome[T]{Item: item, Kind: kind, Reason: reason})
			continue
		}

		if remote.IsNotFound(err) || errors.Is(err, ErrSkip) {
			reason := "already absent"
			if errors.Is(err, ErrSkip) {
				reason = err.Error()
			}
			res.Outcomes = append(res.Outcomes, Outcome[T]{Item: item, Kind: OutcomeSkipped, Reason: reason})
			ex.reporter.Report(console.Event{
				Type:   console.EventItemSkipped,
				Phase:  opts.Phase,
				Target: describe(item),
				Detail: reason,
			})
			continue
		}

		res.Outcomes = append(res.Outcomes, Outcome[T]{Item: item, Kind: OutcomeFailed, Reason: err.Error()})

		if remote.IsAuth(err) || ctx.Err() != nil {
			res.Status = StatusAborted
			return res
		}
	}

	return res
}
