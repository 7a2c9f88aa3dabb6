package sync

import (
	"strings"

	"github.com/samber/lo"

	"alexa-manager/feature/alexa"
	"alexa-manager/feature/homeassistant"
)

// GroupPlan is the desired Alexa group for one Home Assistant area.
type GroupPlan struct {
	// AreaName is the raw hub area key.
	AreaName string
	// GroupName is the display name the Alexa group gets.
	GroupName string
	// ApplianceIDs are the Alexa appliance ids of matched members, in the
	// order the remote listing reported them.
	ApplianceIDs []string
	// Unmatched holds the area's HA entity ids that matched no discovered
	// endpoint exactly once. They are reported, never guessed at.
	Unmatched []string
}

// Mapping is the full desired area-to-group state.
type Mapping struct {
	// Groups holds one plan per non-ignored area, in hub order.
	Groups []GroupPlan
	// IgnoredAreas lists the areas excluded by configuration.
	IgnoredAreas []string
}

// ComputeMapping derives the desired group layout from the hub's areas and
// the remote endpoint listing. It is a pure function: same inputs, same
// output, including ordering: areas keep hub order and members keep remote
// listing order.
//
// Only endpoints whose description contains filter participate. An HA
// entity id that maps to zero or to multiple endpoints is ambiguous and
// lands in Unmatched instead of the member list.
func ComputeMapping(areas []homeassistant.Area, ignored []string, endpoints []alexa.Entity, filter string, d Deriver) Mapping {
	ignoredSet := make(map[string]struct{}, len(ignored))
	for _, name := range ignored {
		ignoredSet[homeassistant.NormalizeAreaName(name)] = struct{}{}
	}

	managed := lo.Filter(endpoints, func(e alexa.Entity, _ int) bool {
		return filter == "" || strings.Contains(e.Description, filter)
	})

	// Count derived ids first so duplicates can be rejected as ambiguous.
	counts := make(map[string]int, len(managed))
	for _, e := range managed {
		if id, ok := d.DeriveID(e); ok {
			counts[id]++
		}
	}

	var m Mapping
	for _, area := range areas {
		if _, skip := ignoredSet[homeassistant.NormalizeAreaName(area.Name)]; skip {
			m.IgnoredAreas = append(m.IgnoredAreas, area.Name)
			continue
		}

		wanted := make(map[string]struct{}, len(area.EntityIDs))
		for _, id := range area.EntityIDs {
			wanted[strings.ToLower(id)] = struct{}{}
		}

		plan := GroupPlan{
			AreaName:  area.Name,
			GroupName: homeassistant.ConvertAreaName(area.Name),
		}

		matched := make(map[string]struct{}, len(wanted))
		for _, e := range managed {
			id, ok := d.DeriveID(e)
			if !ok {
				continue
			}
			if _, want := wanted[id]; !want {
				continue
			}
			if counts[id] != 1 || e.ApplianceID == "" {
				continue
			}
			plan.ApplianceIDs = append(plan.ApplianceIDs, e.ApplianceID)
			matched[id] = struct{}{}
		}

		for _, id := range area.EntityIDs {
			if _, ok := matched[strings.ToLower(id)]; !ok {
				plan.Unmatched = append(plan.Unmatched, id)
			}
		}

		m.Groups = append(m.Groups, plan)
	}
	return m
}

// ActionType classifies a planned group change.
type ActionType string

const (
	// ActionCreate creates a group that does not exist remotely.
	ActionCreate ActionType = "create"
	// ActionUpdate changes the membership of an existing group.
	ActionUpdate ActionType = "update"
)

// GroupAction is one planned change to the remote group state.
type GroupAction struct {
	// Type is the change kind.
	Type ActionType
	// Name is the group display name.
	Name string
	// ApplianceIDs is the membership to write.
	ApplianceIDs []string
	// Current is the remote group being updated; zero for creates.
	Current alexa.ExpandedGroup
}

// Describe renders the action for prompts and reports.
func (a GroupAction) Describe() string {
	return string(a.Type) + " group " + a.Name
}

// PlanGroupActions diffs the desired mapping against the current remote
// groups. In update_only mode existing members are kept and missing ones
// appended; in full mode the membership is replaced outright. Groups whose
// membership already matches produce no action. Areas with no matched
// members produce no create: an empty group is noise.
func PlanGroupActions(m Mapping, current []alexa.ExpandedGroup, mode string) []GroupAction {
	byName := make(map[string]alexa.ExpandedGroup, len(current))
	for _, g := range current {
		byName[g.Name] = g
	}

	var actions []GroupAction
	for _, plan := range m.Groups {
		existing, found := byName[plan.GroupName]
		if !found {
			if len(plan.ApplianceIDs) == 0 {
				continue
			}
			actions = append(actions, GroupAction{
				Type:         ActionCreate,
				Name:         plan.GroupName,
				ApplianceIDs: plan.ApplianceIDs,
			})
			continue
		}

		members := existing.MemberIDs()
		var next []string
		switch mode {
		case ModeFull:
			if sameMembers(members, plan.ApplianceIDs) {
				continue
			}
			next = plan.ApplianceIDs
		default: // update_only
			missing := lo.Filter(plan.ApplianceIDs, func(id string, _ int) bool {
				return !lo.Contains(members, id)
			})
			if len(missing) == 0 {
				continue
			}
			next = append(append([]string{}, members...), missing...)
		}

		actions = append(actions, GroupAction{
			Type:         ActionUpdate,
			Name:         plan.GroupName,
			ApplianceIDs: next,
			Current:      existing,
		})
	}
	return actions
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
