// Package alexa is the client layer for the undocumented Alexa smart-home
// web API (phoenix appliances and groups, behaviors entities, the nexus
// GraphQL endpoint).
//
// The API is reverse engineered from the Alexa web app: authentication is
// a captured browser session (cookie + csrf), payload shapes are observed
// rather than documented, and several quirks are preserved deliberately:
// appliance DELETE ids are percent-encoded descriptions, group creation
// wraps member ids in JSON-encoded strings, and the listing names a
// group's id "groupId" while mutations name it "id".
//
// Resilience (rate limiting, retries, dry-run) is not handled here; every
// operation is executed through the remote.Invoker passed at construction.
package alexa
