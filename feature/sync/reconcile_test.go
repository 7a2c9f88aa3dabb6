package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-manager/feature/alexa"
	"alexa-manager/feature/homeassistant"
)

const testSuffix = " via Home Assistant"

func haEntity(name, haID, applianceID string) alexa.Entity {
	return alexa.Entity{
		DisplayName: name,
		Description: haID + testSuffix,
		ApplianceID: applianceID,
	}
}

func TestComputeMapping_BasicGrouping(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "living_room", EntityIDs: []string{"light.sofa", "light.ceiling"}},
		{Name: "kitchen", EntityIDs: []string{"light.counter"}},
	}
	endpoints := []alexa.Entity{
		haEntity("Sofa", "light.sofa", "app-sofa"),
		haEntity("Counter", "light.counter", "app-counter"),
		haEntity("Ceiling", "light.ceiling", "app-ceiling"),
	}

	m := ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver())

	require.Len(t, m.Groups, 2)
	assert.Equal(t, "living_room", m.Groups[0].AreaName)
	assert.Equal(t, "Living Room", m.Groups[0].GroupName)
	// Members follow remote listing order, not area order
	assert.Equal(t, []string{"app-sofa", "app-ceiling"}, m.Groups[0].ApplianceIDs)
	assert.Empty(t, m.Groups[0].Unmatched)

	assert.Equal(t, "Kitchen", m.Groups[1].GroupName)
	assert.Equal(t, []string{"app-counter"}, m.Groups[1].ApplianceIDs)
}

// TestComputeMapping_Deterministic tests that identical inputs produce
// identical output, ordering included.
func TestComputeMapping_Deterministic(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "office", EntityIDs: []string{"light.desk", "switch.fan", "light.shelf"}},
		{Name: "hall", EntityIDs: []string{"light.hall"}},
	}
	endpoints := []alexa.Entity{
		haEntity("Shelf", "light.shelf", "app-1"),
		haEntity("Desk", "light.desk", "app-2"),
		haEntity("Hall", "light.hall", "app-3"),
		haEntity("Fan", "switch.fan", "app-4"),
	}

	first := ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver()))
	}
	assert.Equal(t, []string{"app-1", "app-2", "app-4"}, first.Groups[0].ApplianceIDs)
}

func TestComputeMapping_IgnoredAreas(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "living_room", EntityIDs: []string{"light.sofa"}},
		{Name: "server_rack", EntityIDs: []string{"switch.ups"}},
	}
	endpoints := []alexa.Entity{haEntity("Sofa", "light.sofa", "app-sofa")}

	// Ignore-list entries are normalized before comparison
	m := ComputeMapping(areas, []string{"Server Rack"}, endpoints, testSuffix, DefaultDeriver())

	require.Len(t, m.Groups, 1)
	assert.Equal(t, "living_room", m.Groups[0].AreaName)
	assert.Equal(t, []string{"server_rack"}, m.IgnoredAreas)
}

// TestComputeMapping_UnmatchedNeverGuessed tests that area entities with
// no exact endpoint match are reported as unmatched instead of being
// assigned to the closest candidate.
func TestComputeMapping_UnmatchedNeverGuessed(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "bedroom", EntityIDs: []string{"light.bed", "sensor.temp", "light.lamp"}},
	}
	endpoints := []alexa.Entity{
		haEntity("Bed", "light.bed", "app-bed"),
		// sensor.temp was never exposed to Alexa; light.lamp lost its
		// appliance id in discovery
		haEntity("Lamp", "light.lamp", ""),
	}

	m := ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver())

	require.Len(t, m.Groups, 1)
	assert.Equal(t, []string{"app-bed"}, m.Groups[0].ApplianceIDs)
	assert.Equal(t, []string{"sensor.temp", "light.lamp"}, m.Groups[0].Unmatched)
}

// TestComputeMapping_AmbiguousMatchSkipped tests that an HA entity id
// derived from more than one endpoint is treated as unmatched.
func TestComputeMapping_AmbiguousMatchSkipped(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "garage", EntityIDs: []string{"light.door"}},
	}
	endpoints := []alexa.Entity{
		haEntity("Door A", "light.door", "app-a"),
		haEntity("Door B", "light.door", "app-b"),
	}

	m := ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver())

	require.Len(t, m.Groups, 1)
	assert.Empty(t, m.Groups[0].ApplianceIDs)
	assert.Equal(t, []string{"light.door"}, m.Groups[0].Unmatched)
}

func TestComputeMapping_DescriptionFilter(t *testing.T) {
	areas := []homeassistant.Area{
		{Name: "porch", EntityIDs: []string{"light.porch"}},
	}
	endpoints := []alexa.Entity{
		{DisplayName: "Porch", Description: "light.porch" + testSuffix, ApplianceID: "app-managed"},
		{DisplayName: "Native", Description: "a Zigbee bulb", ApplianceID: "app-native"},
	}

	m := ComputeMapping(areas, nil, endpoints, testSuffix, DefaultDeriver())

	require.Len(t, m.Groups, 1)
	assert.Equal(t, []string{"app-managed"}, m.Groups[0].ApplianceIDs)
}

func TestSuffixDeriver(t *testing.T) {
	d := SuffixDeriver{Suffix: testSuffix}

	id, ok := d.DeriveID(alexa.Entity{Description: "Light.Sofa via Home Assistant"})
	assert.True(t, ok)
	assert.Equal(t, "light.sofa", id)

	_, ok = d.DeriveID(alexa.Entity{Description: ""})
	assert.False(t, ok)
}

func TestPlanGroupActions_CreatesMissingGroups(t *testing.T) {
	m := Mapping{Groups: []GroupPlan{
		{GroupName: "Living Room", ApplianceIDs: []string{"app-1", "app-2"}},
		{GroupName: "Empty Area"}, // no matched members, no create
	}}

	actions := PlanGroupActions(m, nil, ModeUpdateOnly)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCreate, actions[0].Type)
	assert.Equal(t, "Living Room", actions[0].Name)
	assert.Equal(t, []string{"app-1", "app-2"}, actions[0].ApplianceIDs)
}

// TestPlanGroupActions_UpdateOnlyAppends tests that update_only mode keeps
// existing members and appends missing ones.
func TestPlanGroupActions_UpdateOnlyAppends(t *testing.T) {
	m := Mapping{Groups: []GroupPlan{
		{GroupName: "Kitchen", ApplianceIDs: []string{"app-new", "app-old"}},
	}}
	current := []alexa.ExpandedGroup{
		alexa.NewGroup("Kitchen").WithMembers([]string{"app-old", "app-manual"}),
	}

	actions := PlanGroupActions(m, current, ModeUpdateOnly)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdate, actions[0].Type)
	assert.Equal(t, []string{"app-old", "app-manual", "app-new"}, actions[0].ApplianceIDs)
}

// TestPlanGroupActions_FullReplaces tests that full mode writes exactly the
// desired membership.
func TestPlanGroupActions_FullReplaces(t *testing.T) {
	m := Mapping{Groups: []GroupPlan{
		{GroupName: "Kitchen", ApplianceIDs: []string{"app-new"}},
	}}
	current := []alexa.ExpandedGroup{
		alexa.NewGroup("Kitchen").WithMembers([]string{"app-old", "app-manual"}),
	}

	actions := PlanGroupActions(m, current, ModeFull)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdate, actions[0].Type)
	assert.Equal(t, []string{"app-new"}, actions[0].ApplianceIDs)
}

func TestPlanGroupActions_NoActionWhenInSync(t *testing.T) {
	m := Mapping{Groups: []GroupPlan{
		{GroupName: "Kitchen", ApplianceIDs: []string{"app-1", "app-2"}},
	}}
	current := []alexa.ExpandedGroup{
		alexa.NewGroup("Kitchen").WithMembers([]string{"app-2", "app-1"}),
	}

	assert.Empty(t, PlanGroupActions(m, current, ModeUpdateOnly))
	// Order differences alone are not drift
	assert.Empty(t, PlanGroupActions(m, current, ModeFull))
}
