package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/output/events"
	"github.com/waftester/apiprobe/pkg/target"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestSeverityLabel(t *testing.T) {
	assert.Equal(t, "Critical", SeverityLabel(finding.Critical))
	assert.Equal(t, "Info", SeverityLabel(finding.Info))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a.b c", Sanitize("a\x00b\tc", false))
	assert.Equal(t, "café", Sanitize("café", false))
	assert.Equal(t, "ok ", Sanitize("ok 🔥", false))
	assert.Equal(t, "ok 🔥", Sanitize("ok 🔥", true))
	assert.Equal(t, ".", Sanitize("\xff", true))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "日本...", Truncate("日本語のテキスト", 5))
}

func TestTerminalWidth_NotATerminal(t *testing.T) {
	assert.Equal(t, 80, TerminalWidth(&bytes.Buffer{}, 80))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestFormatResult(t *testing.T) {
	rf := NewResultFormatter(true, false, 0)
	r := finding.Vulnerable("SQL Injection (REST)", 0.9, "SQLi detected", "' OR '1'='1", "Use parameterized queries")
	e := events.NewResult("scan", 0, "sql", events.TargetInfo{}, r, 15*time.Millisecond, false, time.Time{})

	line := rf.FormatResult(e)
	assert.Contains(t, line, "critical")
	assert.Contains(t, line, "[vulnerable]")
	assert.Contains(t, line, "SQL Injection (REST)")
	assert.Contains(t, line, "[0.90]")
	assert.Contains(t, line, "[15ms]")
	assert.Contains(t, line, "-> ' OR '1'='1")
}

func TestFormatResult_Failed(t *testing.T) {
	rf := NewResultFormatter(false, false, 0)
	r := finding.Failed("xss", assert.AnError, "Check test implementation")
	e := events.NewResult("scan", 1, "xss", events.TargetInfo{}, r, 2*time.Second, true, time.Time{})

	line := rf.FormatResult(e)
	assert.Contains(t, line, "[failed]")
	assert.Contains(t, line, "[2.00s]")
}

func TestRenderTable(t *testing.T) {
	outcome := finding.Outcome{
		finding.Vulnerable("XSS (REST)", 0.8, "XSS vulnerability detected", "<script>", "Implement input sanitization and CSP headers"),
		finding.Clean("SSRF (REST)", "No SSRF vulnerabilities detected", "Validate outbound URLs"),
	}
	var buf bytes.Buffer
	NewResultFormatter(false, false, 120).RenderTable(&buf, outcome)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "TEST")
	assert.Contains(t, out, "XSS (REST)")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "fix: Implement input sanitization")
	assert.NotContains(t, out, "fix: Validate outbound URLs")
}

func TestConsoleHook(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHook(&buf, NewResultFormatter(false, false, 80))
	assert.ElementsMatch(t, []events.EventType{events.EventTypeResult, events.EventTypeComplete}, h.EventTypes())

	ctx := context.Background()
	r := finding.Clean("GraphQL Introspection", "Introspection disabled", "N/A")
	require.NoError(t, h.OnEvent(ctx, events.NewResult("s", 0, "introspection", events.TargetInfo{}, r, time.Millisecond, false, time.Time{})))
	require.NoError(t, h.OnEvent(ctx, events.NewComplete("s", events.TargetInfo{}, finding.Outcome{r}, time.Second, false, time.Time{})))

	out := buf.String()
	assert.Contains(t, out, "GraphQL Introspection")
	assert.Contains(t, out, "Scan Summary")
	assert.Contains(t, out, "No vulnerabilities detected")
}

func TestConsoleHook_Silent(t *testing.T) {
	SetSilent(true)
	defer SetSilent(false)

	var buf bytes.Buffer
	h := NewConsoleHook(&buf, nil)
	require.NoError(t, h.OnEvent(context.Background(), events.NewComplete("s", events.TargetInfo{}, nil, 0, true, time.Time{})))
	assert.Empty(t, buf.String())
}

func TestRenderSummary_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	NewResultFormatter(false, false, 80).RenderSummary(&buf, events.NewComplete("s", events.TargetInfo{}, nil, 0, true, time.Time{}))
	assert.Contains(t, buf.String(), "interrupted")
}

func TestPrintTarget(t *testing.T) {
	var buf bytes.Buffer
	tgt := target.New(target.REST, "https://api.example.com/users")
	PrintTarget(&buf, tgt, tgt.Tests)

	out := buf.String()
	assert.Contains(t, out, "https://api.example.com/users")
	assert.Contains(t, out, "REST")
	assert.Contains(t, out, "GET")
	assert.Contains(t, out, "sql, xss, ssrf, rate_limit")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "v0.")
}
