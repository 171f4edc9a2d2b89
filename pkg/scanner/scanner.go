package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/output/events"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

// Result names and texts for orchestrator-level outcomes.
const (
	TestAPIType            = "API Type"
	RecUnsupportedProtocol = "Use REST, SOAP, or GraphQL"
	RecProbeFailure        = "Check test implementation"
)

// EventSink receives scan events. *dispatcher.Dispatcher satisfies it.
type EventSink interface {
	Dispatch(ctx context.Context, event events.Event) error
}

// Scan is one finished scan.
type Scan struct {
	ID        string
	Target    *target.Target
	Outcome   finding.Outcome
	StartedAt time.Time
	Duration  time.Duration

	// Cancelled is set when ctx ended the scan before every requested
	// test ran. Outcome holds the results produced until then.
	Cancelled bool
}

// Scanner runs scans against a Registry.
type Scanner struct {
	registry *Registry
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithEvents routes scan events to sink.
func WithEvents(sink EventSink) Option {
	return func(s *Scanner) { s.events = sink }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithIDGenerator replaces the random scan ID source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scanner) { s.newID = fn }
}

// New creates a Scanner. A nil registry uses DefaultRegistry with
// default dependencies.
func New(registry *Registry, opts ...Option) *Scanner {
	s := &Scanner{
		registry: registry,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry(probe.Deps{Logger: s.logger})
	}
	return s
}

// Registry returns the probe table.
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Run scans t and returns the ordered results. It never panics and
// never fails: unsupported protocols yield one "API Type" result,
// unknown test names are dropped, and probe failures become
// zero-confidence results.
func (s *Scanner) Run(ctx context.Context, t *target.Target) finding.Outcome {
	return s.Scan(ctx, t).Outcome
}

// Scan is Run with scan metadata.
func (s *Scanner) Scan(ctx context.Context, t *target.Target) Scan {
	if t == nil {
		t = &target.Target{}
	}
	scan := Scan{ID: s.newID(), Target: t, StartedAt: s.now()}
	log := s.logger.With(slog.String("scan_id", scan.ID))
	ti := events.TargetInfoOf(t)

	if !s.registry.Supports(t.Protocol) {
		log.Warn("unsupported protocol", slog.String("protocol", string(t.Protocol)))
		scan.Outcome = finding.Outcome{finding.Clean(TestAPIType,
			fmt.Sprintf("Unsupported API type: %s", t.Protocol),
			RecUnsupportedProtocol)}
		s.emit(ctx, events.NewStart(scan.ID, t, 0, scan.StartedAt))
		s.emitResult(ctx, scan.ID, 0, "api_type", ti, scan.Outcome[0], 0, false)
		return s.finish(ctx, scan, ti)
	}

	resolved := s.registry.Resolve(t.Protocol, t.Tests)
	s.emit(ctx, events.NewStart(scan.ID, t, len(resolved), scan.StartedAt))
	log.Debug("scan started",
		slog.String("protocol", string(t.Protocol)),
		slog.String("url", t.URL),
		slog.Int("requested", len(t.Tests)),
		slog.Int("resolved", len(resolved)))

	for _, name := range t.Tests {
		p, ok := s.registry.Lookup(t.Protocol, name)
		if !ok {
			log.Debug("unknown test dropped", slog.String("test", name))
			continue
		}
		if ctx.Err() != nil {
			scan.Cancelled = true
			break
		}

		started := s.now()
		r, err := s.runProbe(ctx, p, t)
		elapsed := s.now().Sub(started)

		if err != nil && ctx.Err() != nil {
			scan.Cancelled = true
			log.Info("scan cancelled", slog.String("test", name))
			break
		}
		failed := err != nil
		if failed {
			log.Warn("probe failed", slog.String("test", name), slog.String("error", err.Error()))
			r = finding.Failed(name, err, RecProbeFailure)
		}
		r.Confidence = finding.ClampConfidence(r.Confidence)

		scan.Outcome = append(scan.Outcome, r)
		s.emitResult(ctx, scan.ID, len(scan.Outcome)-1, name, ti, r, elapsed, failed)
	}

	return s.finish(ctx, scan, ti)
}

func (s *Scanner) finish(ctx context.Context, scan Scan, ti events.TargetInfo) Scan {
	scan.Duration = s.now().Sub(scan.StartedAt)
	if scan.Outcome == nil {
		scan.Outcome = finding.Outcome{}
	}
	// Complete is delivered even after cancellation so hooks can close
	// their spans.
	s.emit(context.WithoutCancel(ctx), events.NewComplete(scan.ID, ti, scan.Outcome, scan.Duration, scan.Cancelled, s.now()))
	s.logger.Info("scan finished",
		slog.String("scan_id", scan.ID),
		slog.Int("results", len(scan.Outcome)),
		slog.Int("vulnerable", scan.Outcome.VulnerableCount()),
		slog.Duration("duration", scan.Duration),
		slog.Bool("cancelled", scan.Cancelled))
	return scan
}

// runProbe calls p.Run, converting a panic into an error.
func (s *Scanner) runProbe(ctx context.Context, p probe.Probe, t *target.Target) (r finding.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("probe panicked",
				slog.String("probe", p.Name()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", finding.ErrProbePanic, rec)
		}
	}()
	return p.Run(ctx, t)
}

func (s *Scanner) emitResult(ctx context.Context, scanID string, index int, test string, ti events.TargetInfo, r finding.Result, elapsed time.Duration, failed bool) {
	s.emit(ctx, events.NewResult(scanID, index, test, ti, r, elapsed, failed, s.now()))
}

func (s *Scanner) emit(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, e); err != nil {
		s.logger.Warn("event dispatch failed",
			slog.String("event", string(e.EventType())),
			slog.String("error", err.Error()))
	}
}
