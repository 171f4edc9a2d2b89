// Package dispatcher routes scan events to writers and hooks.
//
// Writers persist events (JSON, rendered templates). Hooks handle
// live integrations (structured logs, Prometheus metrics, OpenTelemetry
// traces). The scanner only ever talks to the dispatcher, which keeps
// event generation decoupled from event consumption.
package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/waftester/apiprobe/pkg/output/events"
)

// Writer is the interface for all output writers.
type Writer interface {
	// Write writes an event to the output.
	Write(event events.Event) error

	// Flush ensures all buffered events are written.
	Flush() error

	// Close closes the writer and releases any resources.
	Close() error

	// SupportsEvent returns true if the writer handles this event type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook is the interface for event hooks.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the event types this hook handles.
	// Return nil or empty slice to receive all events.
	EventTypes() []events.EventType
}

// Dispatcher routes events to writers and hooks.
// It is safe for concurrent use.
type Dispatcher struct {
	writers []Writer
	hooks   []Hook
	mu      sync.RWMutex
	closed  bool

	async  bool
	hookWg sync.WaitGroup
	logger *slog.Logger
}

// Config configures the dispatcher behavior.
type Config struct {
	// Async enables asynchronous hook processing.
	// When true, hooks are called in goroutines and Close waits for them.
	Async bool

	// Logger receives writer and hook failures. Nil uses slog.Default().
	Logger *slog.Logger
}

// New creates a new event dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		async:  cfg.Async,
		logger: logger,
	}
}

// RegisterWriter adds a writer to the dispatcher.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the dispatcher.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch sends an event to all registered writers and hooks.
// It returns nil even if individual writers or hooks fail, so that
// every consumer gets a chance to see the event. Events dispatched
// after Close are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil
	}

	et := event.EventType()
	for _, w := range d.writers {
		if !w.SupportsEvent(et) {
			continue
		}
		if err := w.Write(event); err != nil {
			d.logger.Warn("output writer failed",
				slog.String("event", string(et)),
				slog.String("error", err.Error()))
		}
	}

	for _, h := range d.hooks {
		if !hookSupportsEvent(h, et) {
			continue
		}
		if d.async {
			d.hookWg.Add(1)
			go func(hook Hook) {
				defer d.hookWg.Done()
				d.callHook(ctx, hook, event)
			}(h)
			continue
		}
		d.callHook(ctx, h, event)
	}

	return nil
}

func (d *Dispatcher) callHook(ctx context.Context, h Hook, event events.Event) {
	if err := h.OnEvent(ctx, event); err != nil {
		d.logger.Warn("output hook failed",
			slog.String("event", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}

// hookSupportsEvent checks if a hook handles the given event type.
// An empty type list means the hook receives all events.
func hookSupportsEvent(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	return len(types) == 0 || slices.Contains(types, eventType)
}

// Flush flushes all registered writers.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for _, w := range d.writers {
		errs = append(errs, w.Flush())
	}
	return errors.Join(errs...)
}

// Close waits for in-flight async hooks, then flushes and closes all
// writers and every hook that implements io.Closer. Close is
// idempotent.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	// Dispatch holds the read lock while it schedules goroutines, so no
	// new hook calls can start once the write lock is held.
	d.hookWg.Wait()

	var errs []error
	for _, w := range d.writers {
		errs = append(errs, w.Flush(), w.Close())
	}
	for _, h := range d.hooks {
		if c, ok := h.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
