package writers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "text-summary",
	// "markdown" or "csv".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"text-summary": `apiprobe scan {{ .ScanID }}
Target: {{ .Target.Protocol }} {{ .Target.Method }} {{ .Target.URL }}
Duration: {{ printf "%.2f" .DurationSec }}s
{{ if .Cancelled }}Status: cancelled
{{ end }}
Results: {{ len .Results }} ({{ .Vulnerable }} vulnerable)
{{- range .Results }}
  {{ severityIcon (toString .Severity) }} {{ .TestName | trunc 40 | printf "%-40s" }} {{ printf "%.2f" .Confidence }}  {{ .Description }}
{{- end }}
`,

	"markdown": `# apiprobe report

| Field | Value |
|---|---|
| Scan | ` + "`{{ .ScanID }}`" + ` |
| Target | {{ .Target.URL }} |
| Protocol | {{ .Target.Protocol }} |
| Vulnerable | {{ .Vulnerable }} / {{ len .Results }} |

## Findings

| Severity | Test | Confidence | Payload | Recommendation |
|---|---|---|---|---|
{{- range .Results }}
| {{ .Severity | toString | upper }} | {{ .TestName }} | {{ printf "%.2f" .Confidence }} | {{ if .Payload }}` + "`{{ escapeMD .PayloadText }}`" + `{{ else }}-{{ end }} | {{ .Recommendation }} |
{{- end }}
`,

	"csv": `scan_id,test,name,vulnerable,confidence,severity,payload,recommendation
{{- range .Results }}
{{ $.ScanID }},{{ .Test }},{{ escapeCSV .TestName }},{{ .Vulnerable }},{{ printf "%.2f" .Confidence }},{{ .Severity }},{{ escapeCSV .PayloadText }},{{ escapeCSV .Recommendation }}
{{- end }}
`,
}

// BuiltInTemplates returns the names of the built-in templates.
func BuiltInTemplates() []string {
	names := make([]string, 0, len(builtInTemplates))
	for name := range builtInTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateWriter renders a scan Report through a Go template with the
// sprig function map. It buffers events and renders on Close.
type TemplateWriter struct {
	w      io.Writer
	mu     sync.Mutex
	config TemplateConfig
	tmpl   *template.Template
	col    collector
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{w: w, config: config}
	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}
	return tw, nil
}

func (tw *TemplateWriter) parseTemplate() error {
	var content string

	switch {
	case tw.config.TemplatePath != "":
		b, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		content = string(b)

	case tw.config.TemplateString != "":
		content = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		c, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: %s)",
				tw.config.BuiltIn, strings.Join(BuiltInTemplates(), ", "))
		}
		content = c

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["escapeMD"] = tmplEscapeMarkdown
	funcMap["severityIcon"] = tmplSeverityIcon
	funcMap["json"] = tmplToJSON

	tmpl, err := template.New("apiprobe").Funcs(funcMap).Parse(content)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}
	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.col.add(event)
	return nil
}

// Flush is a no-op. The document is rendered on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template and writes it out.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	report := tw.col.snapshot()

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}
	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for scan lifecycle events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	return supportsScanEvents(eventType)
}

// tmplEscapeCSV quotes s if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// tmplEscapeMarkdown keeps payloads from breaking table cells.
func tmplEscapeMarkdown(s string) string {
	r := strings.NewReplacer("|", "\\|", "`", "'", "\n", " ", "\r", "")
	return r.Replace(s)
}

// tmplSeverityIcon returns a marker for a severity level.
func tmplSeverityIcon(severity string) string {
	switch finding.Severity(strings.ToLower(severity)) {
	case finding.Critical:
		return "[CRIT]"
	case finding.High:
		return "[HIGH]"
	case finding.Medium:
		return "[MED] "
	case finding.Low:
		return "[LOW] "
	default:
		return "[ -- ]"
	}
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v any) string {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}
