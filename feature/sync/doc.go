// Package sync is the pipeline that reconciles Alexa entities, endpoints
// and groups against Home Assistant areas.
//
// A run walks fixed phases: delete stale entities, delete stale endpoints,
// delete groups, trigger rediscovery and poll until the entity listing
// settles, compute the desired area-to-group mapping, then create or
// update groups to match. Each phase is a sequential batch; a declined
// confirmation or an authentication failure stops the run, anything less
// is recorded per item and the pipeline moves on.
//
// The mapping itself (ComputeMapping) is a pure function so it can be
// previewed without touching remote state, and the rule that links an
// Alexa entity back to its Home Assistant origin is a pluggable Deriver.
package sync
