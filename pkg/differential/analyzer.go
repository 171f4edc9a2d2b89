// Package differential decides whether a probe response diverged from a
// reference response enough to count as a behavioral change.
package differential

import (
	"math"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/httpclient"
)

// Analyzer compares response snapshots.
type Analyzer struct {
	// Threshold is the length change, as a fraction of the baseline
	// length, above which two bodies differ (default: 0.3).
	Threshold float64

	// SimilarityFloor is the similarity ratio below which two bodies
	// differ (default: 0.7).
	SimilarityFloor float64

	// ArraySlack is how many elements two top-level arrays may differ
	// by (default: 3).
	ArraySlack int
}

// New returns an Analyzer with the default thresholds.
func New() *Analyzer {
	return &Analyzer{
		Threshold:       defaults.DiffThreshold,
		SimilarityFloor: defaults.SimilarityFloor,
		ArraySlack:      defaults.ArrayLengthSlack,
	}
}

// DiffersSignificantly reports whether candidate diverges from baseline.
// The checks run in order and the first that fires wins: status code,
// body length, top-level JSON shape, text similarity. Identical bodies
// with the same status never differ.
func (a *Analyzer) DiffersSignificantly(baseline, candidate *httpclient.Snapshot) bool {
	if baseline == nil || candidate == nil {
		return baseline != candidate
	}
	if baseline.StatusCode != candidate.StatusCode {
		return true
	}
	if baseline.Fingerprint() == candidate.Fingerprint() && baseline.Body == candidate.Body {
		return false
	}

	lengthDelta := math.Abs(float64(baseline.Len() - candidate.Len()))
	if lengthDelta > a.Threshold*float64(baseline.Len()) {
		return true
	}

	if a.shapeDiffers(Parse(baseline.Body), Parse(candidate.Body)) {
		return true
	}

	return Similarity(baseline.Body, candidate.Body) < a.SimilarityFloor
}

// shapeDiffers compares key sets when both sides are objects and
// lengths when both are arrays. Any other pairing, including a parse
// failure, falls through to the similarity check.
func (a *Analyzer) shapeDiffers(b, c Parsed) bool {
	if b.Kind != Structured || c.Kind != Structured {
		return false
	}
	bk, bObj := b.Keys()
	ck, cObj := c.Keys()
	if bObj && cObj {
		if len(bk) != len(ck) {
			return true
		}
		for k := range bk {
			if _, ok := ck[k]; !ok {
				return true
			}
		}
		return false
	}
	if bl, ok := b.Len(); ok {
		if cl, ok := c.Len(); ok {
			delta := bl - cl
			if delta < 0 {
				delta = -delta
			}
			return delta > a.ArraySlack
		}
	}
	return false
}

// Similarity returns 2*M/T where M is the number of runes in equal
// diff segments and T is the rune count of both strings. Identical
// strings, including two empty ones, score 1.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1.0
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = duration.DiffTimeout
	diffs := dmp.DiffMain(a, b, false)

	matched := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len([]rune(d.Text))
		}
	}
	return 2 * float64(matched) / float64(total)
}
