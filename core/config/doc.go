// Package config loads the application configuration from environment
// variables and an optional .env file. Defaults come from struct tags on
// the partial configs; environment variables override them using the
// SECTION_KEY naming scheme (e.g. ALEXA_HOST, REMOTE_MAX_ATTEMPTS).
package config
