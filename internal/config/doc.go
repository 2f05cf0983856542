// Package config holds the TOML settings shared by the minutes daemon and
// CLI.
//
// Load layers a config file over Default, expands ~ in path fields, applies
// MINUTES_* environment fallbacks for secrets, and validates the result with
// struct tags plus cross-field checks. The daemon's derived file locations
// (lock, pid, current log) hang off Config as methods.
package config
