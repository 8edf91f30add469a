// Package config loads and validates llstore configuration from TOML.
package config
