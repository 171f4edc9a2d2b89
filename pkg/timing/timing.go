// Package timing measures request latency for timing side-channel
// detection: a median-of-N baseline and floor/multiplier thresholds.
package timing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
)

// ErrBaseline is returned when a baseline sample fails.
var ErrBaseline = errors.New("timing: baseline sample failed")

// Profiler establishes latency baselines.
type Profiler struct {
	// Samples is how many sequential runs feed the median (default: 3).
	Samples int

	// Now is the clock (default: time.Now).
	Now func() time.Time
}

// New returns a Profiler taking defaults.BaselineSamples samples.
func New() *Profiler {
	return &Profiler{Samples: defaults.BaselineSamples, Now: time.Now}
}

// Stopwatch times a single call of fn.
func (p *Profiler) Stopwatch(ctx context.Context, fn func(context.Context) error) (time.Duration, error) {
	now := p.clock()
	start := now()
	err := fn(ctx)
	return now().Sub(start), err
}

// Baseline runs fn Samples times one after another and returns the
// median latency. The first failing sample aborts the baseline.
func (p *Profiler) Baseline(ctx context.Context, fn func(context.Context) error) (time.Duration, error) {
	n := p.Samples
	if n <= 0 {
		n = defaults.BaselineSamples
	}
	samples := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrBaseline, err)
		}
		d, err := p.Stopwatch(ctx, fn)
		if err != nil {
			return 0, fmt.Errorf("%w: sample %d: %w", ErrBaseline, i+1, err)
		}
		samples = append(samples, d)
	}
	return Median(samples), nil
}

func (p *Profiler) clock() func() time.Time {
	if p.Now == nil {
		return time.Now
	}
	return p.Now
}

// Median returns the middle value of the sorted samples, the upper
// middle for an even count. The input is not modified.
func Median(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

// Policy is a latency threshold of max(Floor, Multiplier*baseline).
type Policy struct {
	Floor      time.Duration
	Multiplier float64
}

var (
	// Suspicious applies to generic injection payloads.
	Suspicious = Policy{Floor: duration.SuspiciousFloor, Multiplier: duration.SuspiciousMultiplier}

	// Confirmed applies to explicit sleep/delay payloads.
	Confirmed = Policy{Floor: duration.ConfirmedFloor, Multiplier: duration.ConfirmedMultiplier}
)

// Threshold returns the latency above which a response is anomalous.
func (p Policy) Threshold(baseline time.Duration) time.Duration {
	scaled := time.Duration(p.Multiplier * float64(baseline))
	return max(p.Floor, scaled)
}

// IsAnomalous reports whether observed exceeds the threshold.
func (p Policy) IsAnomalous(observed, baseline time.Duration) bool {
	return observed > p.Threshold(baseline)
}

// IsAnomalous reports whether observed > max(floor, multiplier*baseline).
func IsAnomalous(observed, baseline, floor time.Duration, multiplier float64) bool {
	return Policy{Floor: floor, Multiplier: multiplier}.IsAnomalous(observed, baseline)
}
