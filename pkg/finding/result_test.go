package finding

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.85, 0.85},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampConfidence(tt.in), "ClampConfidence(%v)", tt.in)
	}
}

func TestConstructorsClamp(t *testing.T) {
	r := Vulnerable("x", 3.2, "d", "p", "r")
	assert.Equal(t, 1.0, r.Confidence)
	assert.True(t, r.Vulnerable)

	r = New("x", false, -1, "d", "", "r")
	assert.Equal(t, 0.0, r.Confidence)
}

func TestPayloadPresence(t *testing.T) {
	withPayload := Vulnerable("XSS (REST)", 0.8, "d", "<script>alert(1)</script>", "r")
	require.True(t, withPayload.HasPayload())
	assert.Equal(t, "<script>alert(1)</script>", withPayload.PayloadText())

	without := New("Rate Limiting", true, 0.9, "d", "", "r")
	assert.False(t, without.HasPayload())
	assert.Nil(t, without.Payload)
	assert.Equal(t, "", without.PayloadText())
}

func TestFailed(t *testing.T) {
	r := Failed("sql", errors.New("boom"), "Check test implementation")
	assert.False(t, r.Vulnerable)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, "Test failed: boom", r.Description)
	assert.Equal(t, "Check test implementation", r.Recommendation)
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want Severity
	}{
		{"clean", Clean("a", "d", "r"), Info},
		{"clean with confidence", New("a", false, 1, "d", "", "r"), Info},
		{"critical", Vulnerable("a", 0.95, "d", "p", "r"), Critical},
		{"critical boundary", Vulnerable("a", 0.9, "d", "p", "r"), Critical},
		{"high", Vulnerable("a", 0.8, "d", "p", "r"), High},
		{"high boundary", Vulnerable("a", 0.7, "d", "p", "r"), High},
		{"medium", Vulnerable("a", 0.5, "d", "p", "r"), Medium},
		{"low", Vulnerable("a", 0.2, "d", "p", "r"), Low},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityOf(tt.r))
			assert.True(t, tt.want.IsValid())
		})
	}
}

func TestOutcomeCounts(t *testing.T) {
	o := Outcome{
		Vulnerable("a", 0.9, "d", "p", "r"),
		Clean("b", "d", "r"),
		Vulnerable("c", 0.7, "d", "p", "r"),
	}
	assert.Equal(t, 2, o.VulnerableCount())
	assert.True(t, o.HasVulnerable())
	assert.Equal(t, []string{"a", "b", "c"}, o.Names())
	assert.False(t, Outcome{}.HasVulnerable())
}

func TestSeverityScoreOrder(t *testing.T) {
	for i := 1; i < len(AllSeverities); i++ {
		assert.Greater(t, AllSeverities[i-1].Score(), AllSeverities[i].Score())
	}
	assert.Equal(t, 0, Severity("bogus").Score())
}
