package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"alexa-manager/core/console"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Config holds configuration for remote call resilience.
type Config struct {
	// MinIntervalMS is the minimum delay between any two remote calls, in
	// milliseconds. Zero disables rate limiting.
	MinIntervalMS int `mapstructure:"min_interval_ms" default:"200"`
	// MaxAttempts is the number of attempts per call before giving up.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// BaseBackoffMS is the initial retry delay in milliseconds.
	BaseBackoffMS int `mapstructure:"base_backoff_ms" default:"1000"`
	// MaxBackoffMS caps the retry delay, in milliseconds.
	MaxBackoffMS int `mapstructure:"max_backoff_ms" default:"30000"`
	// TimeoutSeconds is the per-call network timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
}

// Policy is the retry policy applied to transient failures. It is a plain
// value so tests can construct it directly with a fake sleeper.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the initial backoff delay.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// Jitter is the randomization factor applied to each delay (0..1).
	Jitter float64
}

// Policy derives the retry policy from the configuration.
func (c Config) Policy() Policy {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Duration(c.BaseBackoffMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.MaxBackoffMS) * time.Millisecond,
		Jitter:      0.5,
	}
}

// MinInterval returns the configured minimum inter-call interval.
func (c Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Timeout returns the per-call network timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Response is the outcome of one remote call.
type Response struct {
	// StatusCode is the HTTP status, or 200 for simulated calls.
	StatusCode int
	// Body is the raw response payload.
	Body []byte
	// Simulated is true when dry-run mode suppressed the call.
	Simulated bool
}

// Operation is one remote call to be executed by the Invoker.
type Operation struct {
	// Name identifies the operation for classification and reporting.
	Name string
	// Target identifies the item the operation applies to.
	Target string
	// Mutating marks destructive calls, which dry-run mode suppresses.
	Mutating bool
	// Describe is the human-readable would-be request, shown in dry-run.
	Describe string
	// Do executes the raw call. It is invoked once per attempt.
	Do func(ctx context.Context) (*Response, error)
}

// Invoker executes remote operations with rate limiting, retry with
// exponential backoff, error classification and dry-run simulation.
// All remote I/O of the application flows through a single Invoker so the
// inter-call interval is enforced globally, not per endpoint.
type Invoker struct {
	limiter  *rate.Limiter
	policy   Policy
	dryRun   bool
	reporter console.Reporter

	// sleep is swapped out in tests for a fake clock.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an Invoker from configuration.
func NewInvoker(cfg Config, dryRun bool, reporter console.Reporter) *Invoker {
	return New(cfg.MinInterval(), cfg.Policy(), dryRun, reporter)
}

// New creates an Invoker from explicit values.
func New(minInterval time.Duration, policy Policy, dryRun bool, reporter console.Reporter) *Invoker {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	if reporter == nil {
		reporter = console.NopReporter{}
	}
	return &Invoker{
		limiter:  rate.NewLimiter(limit, 1),
		policy:   policy,
		dryRun:   dryRun,
		reporter: reporter,
		sleep:    sleepContext,
	}
}

// DryRun reports whether mutating operations are being simulated.
func (iv *Invoker) DryRun() bool {
	return iv.dryRun
}

// Invoke runs one operation. Transient failures are retried with
// exponential backoff and jitter up to the policy's attempt limit; all
// other failures return immediately. Every attempt is reported, successful
// or not.
func (iv *Invoker) Invoke(ctx context.Context, op Operation) (*Response, error) {
	if op.Mutating && iv.dryRun {
		iv.reporter.Report(console.Event{
			Type:   console.EventCallSimulated,
			Op:     op.Name,
			Target: op.Target,
			Detail: op.Describe,
		})
		return &Response{StatusCode: http.StatusOK, Simulated: true}, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = iv.policy.BaseDelay
	b.MaxInterval = iv.policy.MaxDelay
	b.RandomizationFactor = iv.policy.Jitter
	b.Multiplier = 2
	b.MaxElapsedTime = 0 // attempts, not elapsed time, bound the retries
	b.Reset()

	for attempt := 1; ; attempt++ {
		// The rate limiter gates every attempt, including retries.
		if err := iv.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		iv.reporter.Report(console.Event{
			Type:    console.EventCallAttempt,
			Op:      op.Name,
			Target:  op.Target,
			Attempt: attempt,
		})

		resp, err := op.Do(ctx)
		if err == nil {
			iv.reporter.Report(console.Event{
				Type:    console.EventCallSucceeded,
				Op:      op.Name,
				Target:  op.Target,
				Attempt: attempt,
			})
			return resp, nil
		}

		ce := classify(op.Name, err)
		if ce.Kind != KindTransient || attempt >= iv.policy.MaxAttempts {
			iv.reporter.Report(console.Event{
				Type:    console.EventCallFailed,
				Op:      op.Name,
				Target:  op.Target,
				Attempt: attempt,
				Err:     ce,
			})
			return nil, ce
		}

		delay := b.NextBackOff()
		iv.reporter.Report(console.Event{
			Type:    console.EventCallRetry,
			Op:      op.Name,
			Target:  op.Target,
			Attempt: attempt,
			Detail:  delay.String(),
			Err:     ce,
		})
		if err := iv.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// classify normalizes any error into a CallError. Errors the clients did
// not classify themselves are network-level and therefore transient.
func classify(op string, err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	return Transient(op, err)
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
