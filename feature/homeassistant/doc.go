// Package homeassistant is the client layer for the Home Assistant hub.
//
// The hub is the source of truth for areas: the reconciler maps each area
// to an Alexa group. Areas are fetched by rendering a template through the
// hub's /api/template endpoint, because the REST API exposes no direct
// area listing; the rendered output is repaired into JSON before decoding.
//
// Device rediscovery is triggered by routing a "discover devices" command
// at the configured Alexa media player entity. Like the alexa package,
// all calls run through the shared remote.Invoker.
package homeassistant
