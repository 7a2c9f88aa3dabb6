package sync

import (
	"strings"

	"alexa-manager/feature/alexa"
)

// Deriver recovers the Home Assistant entity id embedded in an Alexa
// entity. The embedding is a vendor naming convention, not a contract, so
// the rule is pluggable. Matches must be exact: a deriver that is unsure
// returns ok=false and the entity is skipped, never guessed at.
type Deriver interface {
	DeriveID(e alexa.Entity) (id string, ok bool)
}

// SuffixDeriver strips a literal suffix from the entity description and
// lowercases the rest. This matches the Home Assistant skill's convention
// of describing entities as "<entity_id> via Home Assistant".
type SuffixDeriver struct {
	// Suffix is the literal marker to strip.
	Suffix string
}

// DeriveID implements Deriver.
func (d SuffixDeriver) DeriveID(e alexa.Entity) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(e.Description, d.Suffix, "")))
	if id == "" {
		return "", false
	}
	return id, true
}

// DefaultDeriver returns the deriver matching the Home Assistant skill's
// current naming convention.
func DefaultDeriver() Deriver {
	return SuffixDeriver{Suffix: " via Home Assistant"}
}
