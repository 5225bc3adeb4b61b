// Package config loads, normalizes, and validates forge's TOML configuration.
package config
