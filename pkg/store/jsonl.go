package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/target"
)

// maxLine bounds a single JSONL record (descriptions and payloads are
// short; 1 MiB is generous).
const maxLine = 1 << 20

// JSONLSink appends one JSON record per line to a file.
type JSONLSink struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	f      *os.File
	w      *jsonutil.LineWriter
	closed bool
}

// OpenJSONL opens (creating if needed) path for appending.
func OpenJSONL(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &JSONLSink{path: path, now: time.Now, f: f, w: jsonutil.NewLineWriter(f)}, nil
}

// Save appends the outcome's records.
func (s *JSONLSink) Save(ctx context.Context, scanID, owner string, t *target.Target, outcome finding.Outcome) error {
	recs, err := RecordsOf(scanID, owner, t, outcome, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.w.Write(r); err != nil {
			return fmt.Errorf("store: append %s: %w", s.path, err)
		}
	}
	return nil
}

// Records reads the file back, filtered by owner when owner is set.
func (s *JSONLSink) Records(ctx context.Context, owner string) ([]Record, error) {
	recs, err := ReadJSONLFile(s.path)
	if err != nil {
		return nil, err
	}
	return FilterOwner(recs, owner), nil
}

// Close closes the file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// ReadJSONLFile reads every record in path. A missing file holds no
// records.
func ReadJSONLFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// ReadJSONL decodes JSON Lines records from r. Blank lines are skipped;
// a malformed line is an error naming its line number.
func ReadJSONL(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var recs []Record
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := jsonutil.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("store: line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("store: read: %w", err)
	}
	return recs, nil
}

// FilterOwner keeps the records of owner. An empty owner keeps all.
func FilterOwner(recs []Record, owner string) []Record {
	if owner == "" {
		return recs
	}
	out := recs[:0:0]
	for _, r := range recs {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}
