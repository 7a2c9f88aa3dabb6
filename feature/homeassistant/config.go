package homeassistant

import "strings"

// Config holds connection settings for the Home Assistant hub.
type Config struct {
	// Host is the Home Assistant host (e.g. "ha.example.net").
	Host string `mapstructure:"host" default:""`
	// APIKey is a long-lived access token.
	APIKey string `mapstructure:"api_key" default:""`
	// Enabled toggles hub integration. When false the sync runs in
	// Alexa-only mode and every hub-dependent phase is skipped.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// IgnoredAreas is a comma-separated list of area names excluded from
	// group creation. Names are compared normalized.
	IgnoredAreas string `mapstructure:"ignored_areas" default:""`
	// MediaPlayerEntityID is the Alexa media player entity used to issue
	// the device-discovery command.
	MediaPlayerEntityID string `mapstructure:"media_player_entity_id" default:""`
}

// IgnoredList parses the ignored-areas setting into normalized names.
func (c Config) IgnoredList() []string {
	if strings.TrimSpace(c.IgnoredAreas) == "" {
		return nil
	}
	parts := strings.Split(c.IgnoredAreas, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := NormalizeAreaName(p); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Configured reports whether hub integration is usable: enabled and
// pointing at a host.
func (c Config) Configured() bool {
	return c.Enabled && c.Host != ""
}
