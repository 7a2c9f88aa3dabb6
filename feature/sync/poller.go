package sync

import (
	"context"
	"time"

	"alexa-manager/core/console"
)

// PollState is the discovery wait's lifecycle state.
type PollState string

const (
	// StateIdle means discovery has not been triggered yet.
	StateIdle PollState = "idle"
	// StateTriggered means the discovery command was sent.
	StateTriggered PollState = "triggered"
	// StatePolling means probes are running.
	StatePolling PollState = "polling"
	// StateConverged means consecutive probes agreed on a stable non-zero
	// entity count.
	StateConverged PollState = "converged"
	// StateTimedOut means the deadline passed before convergence. The run
	// continues degraded: later phases see whatever state exists.
	StateTimedOut PollState = "timed_out"
)

// Poller triggers device discovery and waits for the entity listing to
// settle. Discovery completion is not signalled by the remote side, so the
// only observable is the listing count stabilizing.
type Poller struct {
	// Trigger sends the discovery command.
	Trigger func(ctx context.Context) error
	// Probe returns the current remote entity count.
	Probe func(ctx context.Context) (int, error)
	// Interval is the delay between probes.
	Interval time.Duration
	// SettlePolls is how many consecutive probes must agree on the same
	// non-zero count. Values below 2 are raised to 2.
	SettlePolls int
	// Timeout bounds the whole wait, trigger included.
	Timeout time.Duration
	// Reporter receives phase progress events. Optional.
	Reporter console.Reporter

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Run executes the trigger-then-poll sequence and returns the terminal
// state. The error is non-nil only when the trigger fails or the context is
// cancelled; probe failures are tolerated and retried on the next interval.
func (p *Poller) Run(ctx context.Context) (PollState, error) {
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	if p.SettlePolls < 2 {
		p.SettlePolls = 2
	}

	if err := p.Trigger(ctx); err != nil {
		return StateIdle, err
	}
	p.report(console.EventPhaseStarted, "discovery triggered")

	deadline := p.now().Add(p.Timeout)
	lastCount := -1
	streak := 0

	for {
		if !p.now().Before(deadline) {
			p.report(console.EventPhaseFinished, "discovery timed out")
			return StateTimedOut, nil
		}
		if err := p.sleep(ctx, p.Interval); err != nil {
			return StatePolling, err
		}

		count, err := p.Probe(ctx)
		if err != nil {
			// A failed probe proves nothing either way; the streak resets
			// and the next interval tries again.
			lastCount = -1
			streak = 0
			continue
		}

		if count > 0 && count == lastCount {
			streak++
		} else {
			streak = 1
		}
		lastCount = count

		if count > 0 && streak >= p.SettlePolls {
			p.report(console.EventPhaseFinished, "discovery converged")
			return StateConverged, nil
		}
	}
}

func (p *Poller) report(t console.EventType, detail string) {
	if p.Reporter == nil {
		return
	}
	p.Reporter.Report(console.Event{Type: t, Phase: "discovery", Detail: detail})
}

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
