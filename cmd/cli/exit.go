package main

import (
	"fmt"
	"io"

	"github.com/waftester/apiprobe/pkg/ui"
)

// errorf prints a formatted error line to w.
func errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ui.VulnerableStyle.Render("[ERR]")+" "+fmt.Sprintf(format, args...))
}

// nopWriteCloser keeps writers that close their sink from closing
// stdout.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
