// Package batch applies one remote action across a collection of items.
//
// The executor is the middle layer between the sync orchestrator and the
// resilient call wrapper: it handles confirmation gating, dry-run outcome
// accounting and partial-failure aggregation, while each item's call runs
// through remote.Invoker for retry and rate limiting.
//
// Failure semantics distinguish "fatal-and-stop" (authentication errors
// abort the batch and, by extension, the run) from "item-local-and-continue"
// (not-found and exhausted-transient failures are recorded and the batch
// moves on). A batch of 50 deletions where 2 targets are already gone
// should still delete the other 48.
package batch
