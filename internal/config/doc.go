// Package config loads the application configuration from defaults, an
// optional YAML file and TAQ_* environment variables, in that order of
// precedence (later wins). Validation happens once at load time so the
// pipeline never sees an inconsistent configuration.
package config
