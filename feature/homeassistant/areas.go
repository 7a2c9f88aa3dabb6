package homeassistant

import "strings"

// Area is a Home Assistant area and its member entity ids, in the order
// the hub reported them.
type Area struct {
	// Name is the raw area key from the hub (e.g. "living_room").
	Name string
	// EntityIDs are the HA entity ids assigned to the area.
	EntityIDs []string
}

// NormalizeAreaName canonicalizes an area name for comparison: lowercase,
// underscores to spaces, trimmed. Both the ignore list and hub names go
// through this before matching.
func NormalizeAreaName(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
}

// ConvertAreaName turns a hub area key into the display name used for the
// Alexa group: underscores become spaces and each word is capitalized
// ("living_room" -> "Living Room").
func ConvertAreaName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
