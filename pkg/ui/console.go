package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

var _ dispatcher.Hook = (*ConsoleHook)(nil)

// ConsoleHook prints each result as it arrives and the summary on
// completion. Nothing is printed in silent mode.
type ConsoleHook struct {
	mu sync.Mutex
	w  io.Writer
	rf *ResultFormatter
}

// NewConsoleHook returns a hook writing to w.
func NewConsoleHook(w io.Writer, rf *ResultFormatter) *ConsoleHook {
	if rf == nil {
		rf = NewResultFormatter(false, UnicodeTerminal(), TerminalWidth(w, 100))
	}
	return &ConsoleHook{w: w, rf: rf}
}

// OnEvent renders result and complete events.
func (h *ConsoleHook) OnEvent(_ context.Context, event events.Event) error {
	if IsSilent() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case *events.ResultEvent:
		_, err := fmt.Fprintln(h.w, h.rf.FormatResult(e))
		return err
	case *events.CompleteEvent:
		h.rf.RenderSummary(h.w, e)
	}
	return nil
}

// EventTypes returns the handled types.
func (h *ConsoleHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeResult, events.EventTypeComplete}
}
