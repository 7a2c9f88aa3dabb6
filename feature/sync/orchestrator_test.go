package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-manager/core/batch"
	"alexa-manager/core/console"
	"alexa-manager/core/remote"
	"alexa-manager/feature/alexa"
	"alexa-manager/feature/homeassistant"
)

// fakeAlexa is a scriptable in-memory Client. Every mutation is recorded in
// calls for sequence assertions.
type fakeAlexa struct {
	entities  []alexa.Entity
	endpoints []alexa.Entity
	groups    []alexa.ExpandedGroup

	listEntitiesErr error
	deleteEntityErr func(e alexa.Entity) error

	calls []string
}

func (f *fakeAlexa) ListEntities(ctx context.Context) ([]alexa.Entity, error) {
	f.calls = append(f.calls, "list_entities")
	if f.listEntitiesErr != nil {
		return nil, f.listEntitiesErr
	}
	return f.entities, nil
}

func (f *fakeAlexa) ListEndpoints(ctx context.Context) ([]alexa.Entity, error) {
	f.calls = append(f.calls, "list_endpoints")
	return f.endpoints, nil
}

func (f *fakeAlexa) ListGroups(ctx context.Context) ([]alexa.ExpandedGroup, error) {
	f.calls = append(f.calls, "list_groups")
	return f.groups, nil
}

func (f *fakeAlexa) DeleteEntity(ctx context.Context, e alexa.Entity) error {
	f.calls = append(f.calls, "delete_entity:"+e.DisplayName)
	if f.deleteEntityErr != nil {
		return f.deleteEntityErr(e)
	}
	return nil
}

func (f *fakeAlexa) DeleteEndpoint(ctx context.Context, e alexa.Entity) error {
	f.calls = append(f.calls, "delete_endpoint:"+e.DisplayName)
	return nil
}

func (f *fakeAlexa) DeleteGroup(ctx context.Context, g alexa.ExpandedGroup) error {
	f.calls = append(f.calls, "delete_group:"+g.Name)
	return nil
}

func (f *fakeAlexa) CreateGroup(ctx context.Context, name string, applianceIDs []string) error {
	f.calls = append(f.calls, "create_group:"+name)
	return nil
}

func (f *fakeAlexa) UpdateGroup(ctx context.Context, g alexa.ExpandedGroup) error {
	f.calls = append(f.calls, "update_group:"+g.Name)
	return nil
}

func (f *fakeAlexa) VerifyEntityDeleted(ctx context.Context, e alexa.Entity) error {
	f.calls = append(f.calls, "verify_deleted:"+e.DisplayName)
	return nil
}

// fakeHub is a scriptable in-memory hub client.
type fakeHub struct {
	areas      []homeassistant.Area
	triggerErr error
	calls      []string
}

func (f *fakeHub) ListAreas(ctx context.Context) ([]homeassistant.Area, error) {
	f.calls = append(f.calls, "list_areas")
	return f.areas, nil
}

func (f *fakeHub) TriggerDiscovery(ctx context.Context) error {
	f.calls = append(f.calls, "trigger_discovery")
	return f.triggerErr
}

type autoConfirmer struct{ answer bool }

func (c autoConfirmer) Confirm(string) bool { return c.answer }

func testOrchestrator(a *fakeAlexa, h homeassistant.Client, dryRun bool) *Orchestrator {
	return &Orchestrator{
		Alexa:    a,
		Hub:      h,
		Executor: batch.NewExecutor(autoConfirmer{answer: true}, console.NopReporter{}),
		Filter:   " via Home Assistant",
		Cfg: Config{
			Mode:                    ModeUpdateOnly,
			PollIntervalSeconds:     0,
			SettlePolls:             2,
			DiscoveryTimeoutSeconds: 5,
		},
		DryRun: dryRun,
	}
}

// TestOrchestrator_FullRunPhaseOrder tests that a clean run walks every
// phase in order and ends with groups rebuilt from areas.
func TestOrchestrator_FullRunPhaseOrder(t *testing.T) {
	a := &fakeAlexa{
		entities:  []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")},
		endpoints: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")},
		groups:    []alexa.ExpandedGroup{func() alexa.ExpandedGroup { g := alexa.NewGroup("Old"); g.ID = "g1"; return g }()},
	}
	h := &fakeHub{areas: []homeassistant.Area{{Name: "living_room", EntityIDs: []string{"light.sofa"}}}}

	s := testOrchestrator(a, h, false).Run(context.Background())

	assert.True(t, s.OK())
	assert.False(t, s.Degraded)

	var phases []Phase
	for _, p := range s.Phases {
		phases = append(phases, p.Phase)
	}
	assert.Equal(t, []Phase{
		PhaseDeleteEntities, PhaseDeleteEndpoints, PhaseDeleteGroups,
		PhaseDiscovery, PhaseReconcile, PhaseApplyGroups,
	}, phases)

	assert.Contains(t, a.calls, "delete_entity:Sofa")
	assert.Contains(t, a.calls, "delete_endpoint:Sofa")
	assert.Contains(t, a.calls, "delete_group:Old")
	assert.Contains(t, a.calls, "create_group:Living Room")
	assert.Equal(t, []string{"trigger_discovery", "list_areas"}, h.calls)

	require.NotNil(t, s.Mapping)
	require.Len(t, s.Mapping.Groups, 1)
	assert.Equal(t, "Living Room", s.Mapping.Groups[0].GroupName)
}

// TestOrchestrator_AlexaOnlySkipsHubPhases tests that alexa-only mode runs
// the deletion phases and cleanly skips everything hub-dependent.
func TestOrchestrator_AlexaOnlySkipsHubPhases(t *testing.T) {
	a := &fakeAlexa{entities: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")}}
	o := testOrchestrator(a, nil, false)
	o.AlexaOnly = true

	s := o.Run(context.Background())

	assert.True(t, s.OK())
	require.Len(t, s.Phases, 6)
	for _, p := range s.Phases[3:] {
		assert.False(t, p.Ran)
		assert.Equal(t, "alexa-only mode", p.SkipReason)
	}
	for _, call := range a.calls {
		assert.NotContains(t, call, "create_group")
	}
	assert.Nil(t, s.Mapping)
}

// TestOrchestrator_DeclinedConfirmationStopsRun tests that declining the
// first destructive prompt ends the run with zero side effects.
func TestOrchestrator_DeclinedConfirmationStopsRun(t *testing.T) {
	a := &fakeAlexa{entities: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")}}
	o := testOrchestrator(a, &fakeHub{}, false)
	o.Executor = batch.NewExecutor(autoConfirmer{answer: false}, console.NopReporter{})

	s := o.Run(context.Background())

	assert.False(t, s.OK())
	require.Len(t, s.Phases, 1)
	assert.Equal(t, batch.StatusDeclined, s.Phases[0].Status)
	// Only the listing ran, nothing was deleted
	assert.Equal(t, []string{"list_entities"}, a.calls)
}

// TestOrchestrator_AuthFailureAborts tests that expired credentials stop
// the run at the failing phase.
func TestOrchestrator_AuthFailureAborts(t *testing.T) {
	a := &fakeAlexa{
		entities: []alexa.Entity{
			haEntity("One", "light.one", "app-1"),
			haEntity("Two", "light.two", "app-2"),
		},
		deleteEntityErr: func(e alexa.Entity) error {
			return remote.FromStatus("delete_entity", 401, "cookie expired")
		},
	}
	h := &fakeHub{}

	s := testOrchestrator(a, h, false).Run(context.Background())

	assert.False(t, s.OK())
	require.Len(t, s.Phases, 1)
	assert.Equal(t, batch.StatusAborted, s.Phases[0].Status)
	assert.Empty(t, h.calls, "hub must never be touched after an auth abort")
	// Only the first item was attempted
	assert.Contains(t, a.calls, "delete_entity:One")
	assert.NotContains(t, a.calls, "delete_entity:Two")
}

// TestOrchestrator_DryRunSimulatesAllPhases tests that a dry run still
// walks every phase and records one simulated outcome per would-be
// mutation, so the operator sees the complete plan.
func TestOrchestrator_DryRunSimulatesAllPhases(t *testing.T) {
	a := &fakeAlexa{
		entities:  []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")},
		endpoints: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")},
		groups:    []alexa.ExpandedGroup{alexa.NewGroup("Old")},
	}
	h := &fakeHub{areas: []homeassistant.Area{{Name: "living_room", EntityIDs: []string{"light.sofa"}}}}

	s := testOrchestrator(a, h, true).Run(context.Background())

	assert.True(t, s.OK())
	require.Len(t, s.Phases, 6)

	del := s.Phases[0]
	assert.Equal(t, 1, del.Skipped, "dry-run outcomes are recorded as simulated skips")
	assert.Equal(t, 0, del.Succeeded)

	apply := s.Phases[5]
	assert.Equal(t, PhaseApplyGroups, apply.Phase)
	assert.Equal(t, 1, apply.Skipped, "the would-be create shows up as a simulated skip")
}

// TestOrchestrator_DiscoveryTimeoutDegradesButContinues tests that a
// discovery deadline hit marks the run degraded while later phases still
// run against whatever state exists.
func TestOrchestrator_DiscoveryTimeoutDegradesButContinues(t *testing.T) {
	a := &fakeAlexa{
		endpoints: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")},
	}
	h := &fakeHub{areas: []homeassistant.Area{{Name: "living_room", EntityIDs: []string{"light.sofa"}}}}

	o := testOrchestrator(a, h, false)
	o.Cfg.DiscoveryTimeoutSeconds = 0 // deadline already passed

	s := o.Run(context.Background())

	assert.True(t, s.OK(), "a timed-out discovery is degraded, not fatal")
	assert.True(t, s.Degraded)
	require.Len(t, s.Phases, 6)
	assert.Equal(t, string(StateTimedOut), s.Phases[3].Detail)
	assert.Contains(t, a.calls, "create_group:Living Room")
}

// TestOrchestrator_ListFailureAborts tests that a failed listing stops the
// run: later phases depend on state that could not be read.
func TestOrchestrator_ListFailureAborts(t *testing.T) {
	a := &fakeAlexa{listEntitiesErr: remote.FromStatus("list_entities", 500, "upstream down")}
	h := &fakeHub{}

	s := testOrchestrator(a, h, false).Run(context.Background())

	assert.False(t, s.OK())
	require.Len(t, s.Phases, 1)
	assert.Error(t, s.Phases[0].Err)
	assert.Empty(t, h.calls)
}

// TestOrchestrator_VerifyDeletionsOptIn tests that the post-delete
// verification probe runs only when configured.
func TestOrchestrator_VerifyDeletionsOptIn(t *testing.T) {
	a := &fakeAlexa{entities: []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")}}
	o := testOrchestrator(a, &fakeHub{}, false)
	o.AlexaOnly = true
	o.Cfg.VerifyDeletions = true

	s := o.Run(context.Background())

	assert.True(t, s.OK())
	assert.Contains(t, a.calls, "verify_deleted:Sofa")
}
