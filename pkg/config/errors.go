package config

import "errors"

// Sentinel errors, checked with errors.Is.
var (
	// ErrNotFound is returned by Load when the file does not exist.
	ErrNotFound = errors.New("config: file not found")

	// ErrInvalidConfig covers bad YAML, unknown keys and out-of-range
	// values.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired is returned when an enabled section lacks a
	// field it needs, such as a store path.
	ErrMissingRequired = errors.New("config: missing required field")
)
