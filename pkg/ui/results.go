package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/output/events"
)

var titleCaser = cases.Title(language.English)

// SeverityLabel returns the display label for s, e.g. "Critical".
func SeverityLabel(s finding.Severity) string {
	return titleCaser.String(string(s))
}

// ResultFormatter renders probe results for the console.
type ResultFormatter struct {
	showPayload bool
	unicode     bool
	width       int
}

// NewResultFormatter creates a formatter. width bounds the description
// column of tables; zero uses 100.
func NewResultFormatter(showPayload, unicode bool, width int) *ResultFormatter {
	if width <= 0 {
		width = 100
	}
	return &ResultFormatter{showPayload: showPayload, unicode: unicode, width: width}
}

func verdict(r finding.Result, failed bool) string {
	switch {
	case failed:
		return "failed"
	case r.Vulnerable:
		return "vulnerable"
	default:
		return "clean"
	}
}

func bracket(s string) string {
	return BracketStyle.Render("[") + s + BracketStyle.Render("]")
}

// FormatResult renders one live result line.
// Output: [severity] [verdict] test-name [confidence] [latency]
func (rf *ResultFormatter) FormatResult(e *events.ResultEvent) string {
	r := e.Result
	parts := []string{
		bracket(SeverityStyle(e.Severity).Render(string(e.Severity))),
		bracket(VerdictStyle(r.Vulnerable, e.Failed).Render(verdict(r, e.Failed))),
		StatValueStyle.Render(Sanitize(r.TestName, rf.unicode)),
		bracket(StatLabelStyle.Render(fmt.Sprintf("%.2f", r.Confidence))),
		bracket(StatLabelStyle.Render(formatLatency(e.Duration()))),
	}
	line := strings.Join(parts, " ")

	if rf.showPayload && r.HasPayload() {
		line += "\n      " + SubtitleStyle.Render("-> "+Truncate(Sanitize(r.PayloadText(), rf.unicode), 60))
	}
	return line
}

// RenderTable writes the outcome as an aligned table.
func (rf *ResultFormatter) RenderTable(w io.Writer, outcome finding.Outcome) {
	nameW := len("TEST")
	for _, r := range outcome {
		if n := lipgloss.Width(r.TestName); n > nameW {
			nameW = n
		}
	}
	descW := rf.width - nameW - 32
	if descW < 20 {
		descW = 20
	}

	col := func(s string, width int) string {
		return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
	}
	header := col("TEST", nameW) + "  " + col("SEVERITY", 10) + "  " + col("VERDICT", 11) + "  " + col("CONF", 5) + "  DESCRIPTION"
	fmt.Fprintln(w, StatValueStyle.Render(header))
	fmt.Fprintln(w, DividerStyle.Render(strings.Repeat("-", lipgloss.Width(header))))

	for _, r := range outcome {
		sev := r.Severity()
		row := col(Sanitize(r.TestName, rf.unicode), nameW) + "  " +
			col(SeverityStyle(sev).Render(string(sev)), 10) + "  " +
			col(VerdictStyle(r.Vulnerable, false).Render(verdict(r, false)), 11) + "  " +
			col(fmt.Sprintf("%.2f", r.Confidence), 5) + "  " +
			Truncate(Sanitize(r.Description, rf.unicode), descW)
		fmt.Fprintln(w, row)
		if rf.showPayload && r.HasPayload() {
			fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", nameW), SubtitleStyle.Render("payload: "+Truncate(Sanitize(r.PayloadText(), rf.unicode), descW)))
		}
		if r.Vulnerable && r.Recommendation != "" {
			fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", nameW), SubtitleStyle.Render("fix: "+r.Recommendation))
		}
	}
}

// RenderSummary writes the totals block for a finished scan.
func (rf *ResultFormatter) RenderSummary(w io.Writer, e *events.CompleteEvent) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Scan Summary"))

	stat := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render(fmt.Sprintf("%-12s", label)), StatValueStyle.Render(value))
	}
	stat("Tests", fmt.Sprintf("%d", e.Results))
	stat("Vulnerable", fmt.Sprintf("%d", e.Vulnerable))
	for _, sev := range finding.AllSeverities {
		if n := e.BySeverity[sev]; n > 0 {
			stat(SeverityLabel(sev), fmt.Sprintf("%d", n))
		}
	}
	stat("Duration", formatLatency(time.Duration(e.DurationSec*float64(time.Second))))

	switch {
	case e.Cancelled:
		fmt.Fprintln(w, "  "+FailedStyle.Render(Icon("⚠ ", "[!] ")+"Scan interrupted, results are partial"))
	case e.Vulnerable > 0:
		fmt.Fprintln(w, "  "+VulnerableStyle.Render(Icon("✗ ", "[x] ")+fmt.Sprintf("%d potential vulnerabilities found", e.Vulnerable)))
	default:
		fmt.Fprintln(w, "  "+CleanStyle.Render(Icon("✓ ", "[+] ")+"No vulnerabilities detected"))
	}
}

func formatLatency(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
