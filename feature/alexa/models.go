package alexa

import (
	"encoding/json"
	"strings"
)

// haSuffix is the marker the Home Assistant skill appends to the
// description of every entity it exposes. The HA entity id is recovered by
// stripping it.
const haSuffix = " via Home Assistant"

// Entity represents an Alexa skill entity or a GraphQL-discovered endpoint.
type Entity struct {
	// ID is the unique identifier (applianceKey for endpoints).
	ID string `json:"id"`
	// DisplayName is the user-visible name.
	DisplayName string `json:"displayName"`
	// Description is the vendor description; for Home Assistant entities it
	// embeds the HA entity id followed by haSuffix.
	Description string `json:"description"`
	// ApplianceID is the Alexa applianceId, populated for endpoints.
	ApplianceID string `json:"applianceId"`
}

// HAEntityID derives the Home Assistant entity id embedded in the
// description. The rule mirrors the skill's naming convention and is the
// default strategy of the sync reconciler.
func (e Entity) HAEntityID() string {
	return strings.ToLower(strings.ReplaceAll(e.Description, haSuffix, ""))
}

// DeleteID is the identifier the phoenix appliance API expects in DELETE
// URLs: the description with dots percent-encoded and the suffix stripped.
func (e Entity) DeleteID() string {
	s := strings.ReplaceAll(e.Description, ".", "%23")
	s = strings.ReplaceAll(s, haSuffix, "")
	return strings.ToLower(s)
}

// ExpandedGroup is the full group payload used by the phoenix group API
// for create, update and listing operations.
type ExpandedGroup struct {
	EntityID                string         `json:"entityId"`
	ID                      string         `json:"id"`
	Name                    string         `json:"name"`
	EntityType              string         `json:"entityType"`
	GroupType               string         `json:"groupType"`
	ChildIDs                []string       `json:"childIds"`
	Defaults                []any          `json:"defaults"`
	AssociatedUnitIDs       []string       `json:"associatedUnitIds"`
	DefaultMetadataByType   map[string]any `json:"defaultMetadataByType"`
	ImplicitTargetingByType map[string]any `json:"implicitTargetingByType"`
	ApplianceIDs            []string       `json:"applianceIds"`
}

// MemberIDs returns the plain appliance ids of the group's members. The
// phoenix API stores each member as a JSON-encoded {"applianceId": ...}
// string; elements that are not in that encoding are returned as-is.
func (g ExpandedGroup) MemberIDs() []string {
	ids := make([]string, 0, len(g.ApplianceIDs))
	for _, raw := range g.ApplianceIDs {
		var wrapped struct {
			ApplianceID string `json:"applianceId"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.ApplianceID != "" {
			ids = append(ids, wrapped.ApplianceID)
			continue
		}
		ids = append(ids, raw)
	}
	return ids
}

// WithMembers returns a copy of the group whose membership is the given
// plain appliance ids, wrapped into the encoding the API expects.
func (g ExpandedGroup) WithMembers(ids []string) ExpandedGroup {
	wrapped := make([]string, 0, len(ids))
	for _, id := range ids {
		raw, _ := json.Marshal(map[string]string{"applianceId": id})
		wrapped = append(wrapped, string(raw))
	}
	g.ApplianceIDs = wrapped
	return g
}

// NewGroup returns an ExpandedGroup shell for creation. The API rejects
// null arrays, so every collection field is initialized empty.
func NewGroup(name string) ExpandedGroup {
	return ExpandedGroup{
		Name:                    name,
		EntityType:              "GROUP",
		GroupType:               "APPLIANCE",
		ChildIDs:                []string{},
		Defaults:                []any{},
		AssociatedUnitIDs:       []string{},
		DefaultMetadataByType:   map[string]any{},
		ImplicitTargetingByType: map[string]any{},
		ApplianceIDs:            []string{},
	}
}
