package sync

import (
	"alexa-manager/core/batch"
)

// Phase identifies one stage of the sync pipeline, in execution order.
type Phase string

const (
	// PhaseDeleteEntities removes stale skill entities.
	PhaseDeleteEntities Phase = "delete_entities"
	// PhaseDeleteEndpoints removes stale discovered endpoints.
	PhaseDeleteEndpoints Phase = "delete_endpoints"
	// PhaseDeleteGroups removes existing groups.
	PhaseDeleteGroups Phase = "delete_groups"
	// PhaseDiscovery triggers rediscovery and waits for convergence.
	PhaseDiscovery Phase = "discovery"
	// PhaseReconcile computes the desired area-to-group mapping.
	PhaseReconcile Phase = "reconcile"
	// PhaseApplyGroups creates and updates groups per the mapping.
	PhaseApplyGroups Phase = "apply_groups"
)

// PhaseResult records how one phase went.
type PhaseResult struct {
	// Phase identifies the stage.
	Phase Phase
	// Ran is false when the phase was skipped wholesale.
	Ran bool
	// SkipReason explains a not-run phase.
	SkipReason string
	// Status is the batch status for phases that ran a batch.
	Status batch.Status
	// Succeeded, Skipped and Failed count per-item outcomes.
	Succeeded int
	Skipped   int
	Failed    int
	// Detail carries phase-specific notes (poll state, unmatched counts).
	Detail string
	// Err is set when the phase itself failed, as opposed to individual
	// items within it.
	Err error
}

// Summary is the full account of one sync run.
type Summary struct {
	// RunID correlates the summary with log output.
	RunID string
	// DryRun records whether mutations were simulated.
	DryRun bool
	// AlexaOnly records whether hub phases were skipped.
	AlexaOnly bool
	// Degraded is set when discovery timed out and later phases worked
	// against possibly incomplete state.
	Degraded bool
	// Aborted is set when a fatal error or a declined confirmation stopped
	// the run before all phases completed.
	Aborted bool
	// Mapping is the computed desired state, when the reconcile phase ran.
	Mapping *Mapping
	// Phases holds one result per pipeline stage, in execution order.
	Phases []PhaseResult
}

// OK reports whether the run completed without aborting. Item-local
// failures and a degraded discovery do not make a run not-OK.
func (s *Summary) OK() bool { return !s.Aborted }
