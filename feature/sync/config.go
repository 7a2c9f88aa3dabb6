package sync

import "time"

// Mode controls how existing groups are reconciled with desired members.
const (
	// ModeUpdateOnly only ever adds members to an existing group.
	ModeUpdateOnly = "update_only"
	// ModeFull replaces an existing group's members with the desired set.
	ModeFull = "full"
)

// Config holds sync pipeline settings.
type Config struct {
	// Mode is the group membership sync mode: update_only or full.
	Mode string `mapstructure:"mode" default:"update_only"`
	// PollIntervalSeconds is the delay between discovery probes.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" default:"3"`
	// SettlePolls is the number of consecutive probes that must agree on a
	// non-zero entity count before discovery counts as converged.
	SettlePolls int `mapstructure:"settle_polls" default:"2"`
	// DiscoveryTimeoutSeconds bounds the whole discovery wait.
	DiscoveryTimeoutSeconds int `mapstructure:"discovery_timeout_seconds" default:"120"`
	// VerifyDeletions probes each deleted entity until the API reports it
	// gone. Costs one extra call per item.
	VerifyDeletions bool `mapstructure:"verify_deletions" default:"false"`
}

// PollInterval returns the configured probe interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// DiscoveryTimeout returns the configured discovery deadline.
func (c Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutSeconds) * time.Second
}
