package finding

import "errors"

// Sentinel errors for scan failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrUnsupportedProtocol indicates the target protocol has no probe
	// table.
	ErrUnsupportedProtocol = errors.New("finding: unsupported protocol")

	// ErrProbePanic indicates a probe panicked and was recovered.
	ErrProbePanic = errors.New("finding: probe panicked")

	// ErrNoParameters indicates a parameter-injecting probe was given a
	// target without query parameters.
	ErrNoParameters = errors.New("finding: no parameters to inject")
)
