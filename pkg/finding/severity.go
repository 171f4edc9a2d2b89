package finding

// Severity is the risk bucket of a result, derived from its confidence.
type Severity string

const (
	// Critical marks vulnerable results with confidence >= 0.9.
	Critical Severity = "critical"

	// High marks vulnerable results with confidence in [0.7, 0.9).
	High Severity = "high"

	// Medium marks vulnerable results with confidence in [0.5, 0.7).
	Medium Severity = "medium"

	// Low marks vulnerable results with confidence below 0.5.
	Low Severity = "low"

	// Info marks results that are not vulnerable.
	Info Severity = "info"
)

// AllSeverities lists severities from most to least severe.
var AllSeverities = []Severity{Critical, High, Medium, Low, Info}

// SeverityOf buckets a result by confidence.
func SeverityOf(r Result) Severity {
	if !r.Vulnerable {
		return Info
	}
	switch c := r.Confidence; {
	case c >= 0.9:
		return Critical
	case c >= 0.7:
		return High
	case c >= 0.5:
		return Medium
	default:
		return Low
	}
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low, Info:
		return true
	}
	return false
}

// Score returns a numeric score for sorting.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}
