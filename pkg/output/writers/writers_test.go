package writers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
	"github.com/waftester/apiprobe/pkg/target"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func feed(t *testing.T, w dispatcher.Writer) {
	t.Helper()
	tgt := target.New(target.REST, "http://api.test/items")
	tgt.Tests = []string{"sql", "xss"}
	ti := events.TargetInfoOf(tgt)

	sql := finding.Vulnerable("SQL Injection (Boolean-Based)", 0.85, "differs", "TRUE: id' OR '1'='1, FALSE: id' AND '1'='2", "Use parameterized queries")
	xss := finding.Clean("XSS (REST)", "No XSS vulnerabilities detected", "Continue monitoring, a, b")
	outcome := finding.Outcome{sql, xss}

	for _, e := range []events.Event{
		events.NewStart("scan-42", tgt, 2, t0),
		events.NewResult("scan-42", 0, "sql", ti, sql, time.Second, false, t0.Add(time.Second)),
		events.NewResult("scan-42", 1, "xss", ti, xss, 250*time.Millisecond, false, t0.Add(1250*time.Millisecond)),
		events.NewComplete("scan-42", ti, outcome, 1250*time.Millisecond, false, t0.Add(1250*time.Millisecond)),
	} {
		if w.SupportsEvent(e.EventType()) {
			require.NoError(t, w.Write(e))
		}
	}
}

func TestJSONWriter_Report(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, JSONOptions{Pretty: true})
	feed(t, w)
	require.NoError(t, w.Flush())
	assert.Zero(t, buf.Len())
	require.NoError(t, w.Close())

	var got Report
	require.NoError(t, jsonutil.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "scan-42", got.ScanID)
	assert.Equal(t, "REST", got.Target.Protocol)
	assert.Equal(t, []string{"sql", "xss"}, got.Tests)
	assert.Equal(t, 1, got.Vulnerable)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "SQL Injection (Boolean-Based)", got.Results[0].TestName)
	assert.Equal(t, finding.High, got.Results[0].Severity)
	assert.Equal(t, 1000.0, got.Results[0].DurationMs)
	assert.Nil(t, got.Results[1].Payload)
}

func TestJSONWriter_ResultsOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, JSONOptions{ResultsOnly: true})
	feed(t, w)
	require.NoError(t, w.Close())

	var got []finding.Result
	require.NoError(t, jsonutil.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "XSS (REST)", got[1].TestName)
	assert.NotContains(t, buf.String(), "duration_ms")
}

func TestJSONWriter_EmptyScan(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, JSONOptions{})
	require.NoError(t, w.Close())
	assert.Contains(t, buf.String(), `"results":[]`)
}

func TestTemplateWriter_BuiltIns(t *testing.T) {
	tests := []struct {
		name     string
		contains []string
	}{
		{"text-summary", []string{"apiprobe scan scan-42", "Results: 2 (1 vulnerable)", "[HIGH] SQL Injection (Boolean-Based)"}},
		{"markdown", []string{"# apiprobe report", "| HIGH | SQL Injection (Boolean-Based) | 0.85 |", "| INFO | XSS (REST) | 0.00 | - |"}},
		{"csv", []string{"scan_id,test,name", "scan-42,xss,XSS (REST),false,0.00,info,,\"Continue monitoring, a, b\""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewTemplateWriter(&buf, TemplateConfig{BuiltIn: tt.name})
			require.NoError(t, err)
			feed(t, w)
			require.NoError(t, w.Close())
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestTemplateWriter_SprigAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .ScanID | upper }} {{ len .Results }} {{ (index .Results 0).Test | quote }}`), 0o644))

	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{TemplatePath: path})
	require.NoError(t, err)
	feed(t, w)
	require.NoError(t, w.Close())
	assert.Equal(t, `SCAN-42 2 "sql"`, buf.String())
}

func TestTemplateWriter_Errors(t *testing.T) {
	_, err := NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{})
	assert.ErrorContains(t, err, "no template specified")

	_, err = NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{BuiltIn: "sarif"})
	assert.ErrorContains(t, err, "available: csv, markdown, text-summary")

	_, err = NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{TemplateString: "{{ .Nope"})
	assert.Error(t, err)

	_, err = NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{TemplatePath: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "failed to read template file")
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, "", tmplEscapeCSV(""))
	assert.Equal(t, "plain", tmplEscapeCSV("plain"))
	assert.Equal(t, `"a ""b"", c"`, tmplEscapeCSV(`a "b", c`))
	assert.Equal(t, `a\|b 'c'`, tmplEscapeMarkdown("a|b\n`c`"))
	assert.Equal(t, "[CRIT]", tmplSeverityIcon("CRITICAL"))
	assert.Equal(t, "[ -- ]", tmplSeverityIcon("info"))
	assert.Equal(t, `{"a":1}`, tmplToJSON(map[string]int{"a": 1}))
	assert.Equal(t, []string{"csv", "markdown", "text-summary"}, BuiltInTemplates())
}
