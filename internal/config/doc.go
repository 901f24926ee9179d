// Package config loads, normalizes, and validates metasweep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// monitor and CLI need: the watched directory, watch mode, cleaning tools, and
// notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical watch modes, and clear validation errors.
package config
