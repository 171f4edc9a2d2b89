package target

import "errors"

var (
	// ErrTargetNotFound is returned when a target file does not exist.
	ErrTargetNotFound = errors.New("target: file not found")

	// ErrInvalidTarget is returned for malformed target files or targets
	// that fail shape validation.
	ErrInvalidTarget = errors.New("target: invalid target")
)
