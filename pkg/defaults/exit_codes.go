package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0   // Clean exit, nothing vulnerable
	ExitVulnerable    = 1   // At least one probe reported a vulnerability
	ExitUserError     = 2   // Invalid arguments or configuration
	ExitStoreError    = 3   // Results could not be persisted
	ExitInternalError = 4   // Unexpected internal error
	ExitInterrupted   = 130 // Scan cut short by SIGINT/SIGTERM
)
