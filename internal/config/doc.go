// Package config loads, validates, and defaults the TOML configuration for
// the captiond daemon and CLI.
package config
