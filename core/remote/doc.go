// Package remote executes single remote operations resiliently.
//
// The Alexa smart-home API is undocumented, rate limited and occasionally
// flaky, so every call made by this tool goes through one Invoker which
// enforces:
//
//   - a minimum inter-call interval (token bucket, shared across endpoints)
//   - retry with exponential backoff and jitter for transient failures
//   - immediate classification of fatal failures (auth, not-found, parse)
//   - dry-run simulation of mutating calls
//
// Error classification follows a fixed taxonomy (see ErrorKind) that the
// batch executor uses to decide between halting a run and continuing with
// the next item. Read-only calls are never simulated: dry-run mocks
// effects, not observation.
package remote
