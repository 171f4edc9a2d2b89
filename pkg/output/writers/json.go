package writers

import (
	"fmt"
	"io"
	"sync"

	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONWriter)(nil)

// JSONWriter buffers a scan and writes it as one JSON Report on Close.
type JSONWriter struct {
	w    io.Writer
	mu   sync.Mutex
	opts JSONOptions
	col  collector
}

// JSONOptions configures the JSON writer behavior.
type JSONOptions struct {
	// Pretty enables indented JSON output.
	Pretty bool

	// ResultsOnly writes just the results array, the shape API clients
	// of the scan endpoint expect.
	ResultsOnly bool
}

// NewJSONWriter creates a JSON writer on w. If w is an io.Closer it is
// closed on Close.
func NewJSONWriter(w io.Writer, opts JSONOptions) *JSONWriter {
	return &JSONWriter{w: w, opts: opts}
}

// Write buffers an event.
func (jw *JSONWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.col.add(event)
	return nil
}

// Flush is a no-op. The report is written on Close.
func (jw *JSONWriter) Flush() error {
	return nil
}

// Close writes the report and closes the underlying writer.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	report := jw.col.snapshot()
	var v any = report
	if jw.opts.ResultsOnly {
		results := make([]any, len(report.Results))
		for i, r := range report.Results {
			results[i] = r.Result
		}
		v = results
	}

	var (
		data []byte
		err  error
	)
	if jw.opts.Pretty {
		data, err = jsonutil.MarshalIndent(v)
	} else {
		data, err = jsonutil.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	data = append(data, '\n')
	if _, err := jw.w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for scan lifecycle events.
func (jw *JSONWriter) SupportsEvent(eventType events.EventType) bool {
	return supportsScanEvents(eventType)
}
