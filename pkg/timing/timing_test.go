package timing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by the next step each time a sample finishes.
type fakeClock struct {
	now   time.Time
	steps []time.Duration
	calls int
}

func (c *fakeClock) Now() time.Time {
	// Even calls start a sample, odd calls end one.
	if c.calls%2 == 1 {
		c.now = c.now.Add(c.steps[c.calls/2])
	}
	c.calls++
	return c.now
}

func TestMedian(t *testing.T) {
	s := time.Second
	tests := []struct {
		name    string
		samples []time.Duration
		want    time.Duration
	}{
		{"empty", nil, 0},
		{"single", []time.Duration{7 * s}, 7 * s},
		{"outlier rejected", []time.Duration{1 * s, 2 * s, 9 * s}, 2 * s},
		{"unsorted", []time.Duration{9 * s, 1 * s, 2 * s}, 2 * s},
		{"even takes upper middle", []time.Duration{4 * s, 1 * s, 3 * s, 2 * s}, 3 * s},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.samples))
		})
	}
}

func TestMedianDoesNotModifyInput(t *testing.T) {
	in := []time.Duration{3, 1, 2}
	Median(in)
	assert.Equal(t, []time.Duration{3, 1, 2}, in)
}

func TestBaselineIsMedianNotMean(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), steps: []time.Duration{time.Second, 9 * time.Second, 2 * time.Second}}
	p := &Profiler{Samples: 3, Now: clock.Now}

	runs := 0
	got, err := p.Baseline(context.Background(), func(context.Context) error {
		runs++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, runs)
	assert.Equal(t, 2*time.Second, got)
}

func TestBaselineAbortsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	runs := 0
	_, err := New().Baseline(context.Background(), func(context.Context) error {
		runs++
		if runs == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrBaseline)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, runs)
}

func TestBaselineHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Baseline(ctx, func(context.Context) error {
		t.Fatal("sample ran after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicies(t *testing.T) {
	s := time.Second
	tests := []struct {
		name     string
		policy   Policy
		observed time.Duration
		baseline time.Duration
		want     bool
	}{
		{"suspicious under floor", Suspicious, 4 * s, 100 * time.Millisecond, false},
		{"suspicious over floor", Suspicious, 4*s + 1, 100 * time.Millisecond, true},
		{"suspicious scaled baseline", Suspicious, 5 * s, 3 * s, false},
		{"suspicious over scaled", Suspicious, 7 * s, 3 * s, true},
		{"confirmed under floor", Confirmed, 5 * s, s, false},
		{"confirmed over floor", Confirmed, 6 * s, s, true},
		{"confirmed scaled baseline", Confirmed, 8 * s, 3 * s, false},
		{"confirmed over scaled", Confirmed, 10 * s, 3 * s, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.IsAnomalous(tt.observed, tt.baseline))
			assert.Equal(t, tt.want, IsAnomalous(tt.observed, tt.baseline, tt.policy.Floor, tt.policy.Multiplier))
		})
	}
	assert.Equal(t, 6*s, Suspicious.Threshold(3*s))
	assert.Equal(t, 5*s, Confirmed.Threshold(0))
}

func TestStopwatch(t *testing.T) {
	d, err := New().Stopwatch(context.Background(), func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, 10*time.Millisecond)
}
