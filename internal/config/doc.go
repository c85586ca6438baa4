// Package config loads, normalizes, and validates the TOML configuration for
// racenotes. Path fields are tilde-expanded and made absolute during Load so
// downstream packages never deal with relative or home-anchored paths.
package config
