// Package finding provides the result types shared by every probe.
//
// A Result is the verdict of one probe against one target. Results are
// values: probes build them once through the constructors in this
// package, which clamp confidence into [0, 1], and nothing mutates them
// afterwards. An Outcome is the ordered list of results for one scan.
//
// Usage:
//
//	return finding.Vulnerable("XSS (REST)", 0.8,
//	    "XSS vulnerability detected with payload: "+p, p,
//	    "Implement input sanitization and CSP headers"), nil
package finding
