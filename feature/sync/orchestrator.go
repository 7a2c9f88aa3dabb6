package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"alexa-manager/core/batch"
	"alexa-manager/core/console"
	"alexa-manager/feature/alexa"
	"alexa-manager/feature/homeassistant"
)

// Orchestrator runs the sync pipeline: delete stale Alexa state, trigger
// rediscovery, wait for it to settle, then rebuild groups from Home
// Assistant areas. Phases run strictly in order and share one Summary.
type Orchestrator struct {
	Alexa    alexa.Client
	Hub      homeassistant.Client
	Executor *batch.Executor
	Reporter console.Reporter
	Log      *zap.Logger
	Deriver  Deriver

	// Cfg carries the sync mode and discovery timing.
	Cfg Config
	// Filter limits deletions and mapping to entities whose description
	// contains it.
	Filter string
	// IgnoredAreas are hub areas excluded from the mapping.
	IgnoredAreas []string
	// AlexaOnly skips every hub-dependent phase.
	AlexaOnly bool
	// DryRun simulates all mutations.
	DryRun bool
}

// Run executes the pipeline and returns the per-phase summary. A declined
// confirmation or a fatal error stops the run; everything attempted up to
// that point is still in the summary.
func (o *Orchestrator) Run(ctx context.Context) *Summary {
	s := &Summary{DryRun: o.DryRun, AlexaOnly: o.AlexaOnly}
	if o.Deriver == nil {
		o.Deriver = DefaultDeriver()
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Reporter == nil {
		o.Reporter = console.NopReporter{}
	}

	if !o.deleteEntities(ctx, s) {
		return s
	}
	if !o.deleteEndpoints(ctx, s) {
		return s
	}
	if !o.deleteGroups(ctx, s) {
		return s
	}

	if o.AlexaOnly {
		for _, p := range []Phase{PhaseDiscovery, PhaseReconcile, PhaseApplyGroups} {
			s.Phases = append(s.Phases, PhaseResult{Phase: p, SkipReason: "alexa-only mode"})
		}
		return s
	}

	if !o.discover(ctx, s) {
		return s
	}
	mapping, ok := o.reconcile(ctx, s)
	if !ok {
		return s
	}
	o.applyGroups(ctx, s, mapping)
	return s
}

// deleteEntities removes every skill entity matching the description
// filter. Returns false when the run must stop.
func (o *Orchestrator) deleteEntities(ctx context.Context, s *Summary) bool {
	entities, err := o.Alexa.ListEntities(ctx)
	if err != nil {
		return o.recordPhaseError(s, PhaseDeleteEntities, err)
	}
	items := o.matching(entities)

	res := batch.Run(ctx, o.Executor, items,
		func(e alexa.Entity) string { return e.DisplayName },
		func(ctx context.Context, e alexa.Entity) error {
			if err := o.Alexa.DeleteEntity(ctx, e); err != nil {
				return err
			}
			if o.Cfg.VerifyDeletions && !o.DryRun {
				return o.Alexa.VerifyEntityDeleted(ctx, e)
			}
			return nil
		},
		batch.Options{
			Phase:   string(PhaseDeleteEntities),
			Confirm: true,
			Prompt:  fmt.Sprintf("About to delete %d Alexa entities", len(items)),
			DryRun:  o.DryRun,
		})
	return o.recordBatch(s, PhaseDeleteEntities, toCounts(&res))
}

// deleteEndpoints removes every discovered endpoint matching the filter.
func (o *Orchestrator) deleteEndpoints(ctx context.Context, s *Summary) bool {
	endpoints, err := o.Alexa.ListEndpoints(ctx)
	if err != nil {
		return o.recordPhaseError(s, PhaseDeleteEndpoints, err)
	}
	items := o.matching(endpoints)

	res := batch.Run(ctx, o.Executor, items,
		func(e alexa.Entity) string { return e.DisplayName },
		func(ctx context.Context, e alexa.Entity) error {
			return o.Alexa.DeleteEndpoint(ctx, e)
		},
		batch.Options{
			Phase:   string(PhaseDeleteEndpoints),
			Confirm: true,
			Prompt:  fmt.Sprintf("About to delete %d Alexa endpoints", len(items)),
			DryRun:  o.DryRun,
		})
	return o.recordBatch(s, PhaseDeleteEndpoints, toCounts(&res))
}

// deleteGroups removes all existing groups so they can be rebuilt from the
// current area layout.
func (o *Orchestrator) deleteGroups(ctx context.Context, s *Summary) bool {
	groups, err := o.Alexa.ListGroups(ctx)
	if err != nil {
		return o.recordPhaseError(s, PhaseDeleteGroups, err)
	}

	res := batch.Run(ctx, o.Executor, groups,
		func(g alexa.ExpandedGroup) string { return g.Name },
		func(ctx context.Context, g alexa.ExpandedGroup) error {
			return o.Alexa.DeleteGroup(ctx, g)
		},
		batch.Options{
			Phase:   string(PhaseDeleteGroups),
			Confirm: true,
			Prompt:  fmt.Sprintf("About to delete %d Alexa groups", len(groups)),
			DryRun:  o.DryRun,
		})
	return o.recordBatch(s, PhaseDeleteGroups, toCounts(&res))
}

// discover triggers rediscovery and waits for the entity listing to settle.
// A timeout degrades the run but does not stop it.
func (o *Orchestrator) discover(ctx context.Context, s *Summary) bool {
	if o.DryRun {
		// The trigger is still sent through the invoker so the simulated
		// call shows up in the report; polling after a simulated trigger
		// would only observe stale state, so it is skipped.
		if err := o.Hub.TriggerDiscovery(ctx); err != nil {
			return o.recordPhaseError(s, PhaseDiscovery, err)
		}
		s.Phases = append(s.Phases, PhaseResult{
			Phase: PhaseDiscovery, Ran: true, Skipped: 1,
			Status: batch.StatusCompleted, Detail: "trigger simulated, polling skipped",
		})
		return true
	}

	p := &Poller{
		Trigger:     o.Hub.TriggerDiscovery,
		Probe:       o.probeEntityCount,
		Interval:    o.Cfg.PollInterval(),
		SettlePolls: o.Cfg.SettlePolls,
		Timeout:     o.Cfg.DiscoveryTimeout(),
		Reporter:    o.Reporter,
	}
	state, err := p.Run(ctx)
	if err != nil {
		return o.recordPhaseError(s, PhaseDiscovery, err)
	}

	pr := PhaseResult{Phase: PhaseDiscovery, Ran: true, Status: batch.StatusCompleted, Detail: string(state)}
	if state == StateTimedOut {
		s.Degraded = true
		o.Log.Warn("discovery did not converge before the deadline; continuing with current state")
	}
	s.Phases = append(s.Phases, pr)
	return true
}

func (o *Orchestrator) probeEntityCount(ctx context.Context) (int, error) {
	entities, err := o.Alexa.ListEntities(ctx)
	if err != nil {
		return 0, err
	}
	return len(o.matching(entities)), nil
}

// reconcile computes the desired mapping from hub areas and discovered
// endpoints.
func (o *Orchestrator) reconcile(ctx context.Context, s *Summary) (Mapping, bool) {
	areas, err := o.Hub.ListAreas(ctx)
	if err != nil {
		return Mapping{}, o.recordPhaseError(s, PhaseReconcile, err)
	}
	endpoints, err := o.Alexa.ListEndpoints(ctx)
	if err != nil {
		return Mapping{}, o.recordPhaseError(s, PhaseReconcile, err)
	}

	mapping := ComputeMapping(areas, o.IgnoredAreas, endpoints, o.Filter, o.Deriver)
	s.Mapping = &mapping

	unmatched := 0
	for _, g := range mapping.Groups {
		unmatched += len(g.Unmatched)
		if len(g.Unmatched) > 0 {
			o.Log.Info("area has unmatched entities",
				zap.String("area", g.AreaName),
				zap.Strings("entity_ids", g.Unmatched))
		}
	}

	s.Phases = append(s.Phases, PhaseResult{
		Phase: PhaseReconcile, Ran: true, Status: batch.StatusCompleted,
		Succeeded: len(mapping.Groups),
		Skipped:   len(mapping.IgnoredAreas),
		Detail:    fmt.Sprintf("%d unmatched entities", unmatched),
	})
	return mapping, true
}

// applyGroups diffs the mapping against the remote groups and applies the
// resulting creates and updates.
func (o *Orchestrator) applyGroups(ctx context.Context, s *Summary, mapping Mapping) bool {
	var current []alexa.ExpandedGroup
	if !o.DryRun {
		groups, err := o.Alexa.ListGroups(ctx)
		if err != nil {
			return o.recordPhaseError(s, PhaseApplyGroups, err)
		}
		current = groups
	}
	// In dry-run the delete phase would have emptied the groups, so the
	// plan is computed against an empty remote state to show the full
	// would-be rebuild.

	actions := PlanGroupActions(mapping, current, o.Cfg.Mode)

	res := batch.Run(ctx, o.Executor, actions,
		GroupAction.Describe,
		func(ctx context.Context, a GroupAction) error {
			switch a.Type {
			case ActionCreate:
				return o.Alexa.CreateGroup(ctx, a.Name, a.ApplianceIDs)
			default:
				return o.Alexa.UpdateGroup(ctx, a.Current.WithMembers(a.ApplianceIDs))
			}
		},
		batch.Options{
			Phase:  string(PhaseApplyGroups),
			DryRun: o.DryRun,
		})
	return o.recordBatch(s, PhaseApplyGroups, toCounts(&res))
}

// matching filters entities down to those carrying the description filter.
func (o *Orchestrator) matching(entities []alexa.Entity) []alexa.Entity {
	if o.Filter == "" {
		return entities
	}
	return lo.Filter(entities, func(e alexa.Entity, _ int) bool {
		return strings.Contains(e.Description, o.Filter)
	})
}

// counts is the outcome tally of one batch, type-erased for recording.
type counts struct {
	status                     batch.Status
	succeeded, skipped, failed int
}

func toCounts[T any](r *batch.Result[T]) counts {
	return counts{status: r.Status, succeeded: r.Succeeded(), skipped: r.Skipped(), failed: r.Failed()}
}

// recordBatch folds a batch result into the summary. Returns false when the
// run must stop: the batch was declined or fatally aborted.
func (o *Orchestrator) recordBatch(s *Summary, phase Phase, c counts) bool {
	pr := PhaseResult{
		Phase: phase, Ran: true, Status: c.status,
		Succeeded: c.succeeded, Skipped: c.skipped, Failed: c.failed,
	}
	s.Phases = append(s.Phases, pr)

	switch c.status {
	case batch.StatusDeclined:
		s.Aborted = true
		o.Log.Info("sync cancelled by operator", zap.String("phase", string(phase)))
		return false
	case batch.StatusAborted:
		s.Aborted = true
		o.Log.Error("sync aborted", zap.String("phase", string(phase)))
		return false
	}
	return true
}

// recordPhaseError handles a failure of the phase itself (usually a
// listing call). Every later phase depends on the listing it could not
// get, so the run stops. Always returns false so callers can return it
// directly.
func (o *Orchestrator) recordPhaseError(s *Summary, phase Phase, err error) bool {
	s.Phases = append(s.Phases, PhaseResult{Phase: phase, Ran: true, Status: batch.StatusAborted, Err: err})
	s.Aborted = true
	o.Log.Error("phase failed", zap.String("phase", string(phase)), zap.Error(err))
	return false
}
