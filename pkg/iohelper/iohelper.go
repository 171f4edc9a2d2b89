// Package iohelper reads HTTP response bodies under a size cap.
package iohelper

import (
	"io"
)

// DefaultMaxBodySize caps a probe response body (10MB).
const DefaultMaxBodySize int64 = 10 * 1024 * 1024

// drainLimit bounds how much is discarded before closing so a hostile
// server cannot stall connection reuse.
const drainLimit = 64 * 1024

// ReadBody reads at most maxSize bytes from r. Truncated reports whether
// more data was available. A nil reader yields an empty body.
func ReadBody(r io.Reader, maxSize int64) (body []byte, truncated bool, err error) {
	if r == nil {
		return []byte{}, false, nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	// Read one extra byte to detect truncation.
	body, err = io.ReadAll(io.LimitReader(r, maxSize+1))
	if int64(len(body)) > maxSize {
		return body[:maxSize], true, err
	}
	return body, false, err
}

// DrainAndClose discards a bounded remainder of r and closes it if it is
// a ReadCloser. Always returns nil so it can be deferred.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	if rc, ok := r.(io.ReadCloser); ok {
		_ = rc.Close()
	}
	return nil
}
