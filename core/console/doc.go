// Package console abstracts the operator boundary of the CLI.
//
// Two capabilities are defined:
//   - Confirmer: a yes/no prompt gating destructive batches.
//   - Reporter: a sink receiving per-call and per-phase progress events.
//
// The batch executor and the sync orchestrator depend only on these
// interfaces, which keeps them runnable headless in tests. The default
// implementations read stdin and render through the application logger.
package console
