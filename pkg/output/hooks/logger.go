// Package hooks provides live integrations for scan events: structured
// logging, Prometheus metrics and OpenTelemetry traces.
package hooks

import (
	"context"
	"log/slog"

	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// LoggerHook writes one structured log record per event. Vulnerable
// results are logged at Warn, everything else at Info.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook returns a hook logging to l (nil uses slog.Default()).
func NewLoggerHook(l *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(l)}
}

// OnEvent logs the event.
func (h *LoggerHook) OnEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.InfoContext(ctx, "scan started",
			slog.String("scan_id", e.ScanID()),
			slog.String("protocol", e.Target.Protocol),
			slog.String("url", e.Target.URL),
			slog.Int("tests", len(e.Tests)),
			slog.Int("resolved", e.Resolved))
	case *events.ResultEvent:
		level := slog.LevelInfo
		if e.Result.Vulnerable {
			level = slog.LevelWarn
		}
		if e.Failed {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "probe finished",
			slog.String("scan_id", e.ScanID()),
			slog.String("test", e.Test),
			slog.String("name", e.Result.TestName),
			slog.Bool("vulnerable", e.Result.Vulnerable),
			slog.Float64("confidence", e.Result.Confidence),
			slog.String("severity", string(e.Severity)),
			slog.Duration("duration", e.Duration()))
	case *events.CompleteEvent:
		h.logger.InfoContext(ctx, "scan complete",
			slog.String("scan_id", e.ScanID()),
			slog.Int("results", e.Results),
			slog.Int("vulnerable", e.Vulnerable),
			slog.Float64("duration_sec", e.DurationSec),
			slog.Bool("cancelled", e.Cancelled))
	}
	return nil
}

// EventTypes returns nil: the logger receives every event.
func (h *LoggerHook) EventTypes() []events.EventType {
	return nil
}
