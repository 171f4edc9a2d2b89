// Package cli wires configuration into the engine for the apiprobe
// command: process logger, signal handling, event dispatcher and probe
// dependencies.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/waftester/apiprobe/pkg/config"
	"github.com/waftester/apiprobe/pkg/differential"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/hooks"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/scanner"
	"github.com/waftester/apiprobe/pkg/timing"
)

// ParseLevel maps a level name to slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger: text or JSON on console, plus
// a lumberjack-rotated file when cfg.File is set. The returned closer
// releases the file and is never nil.
func NewLogger(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}
	out := console
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(console, rotator)
		closer = rotator
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	case "", "text":
		h = slog.NewTextHandler(out, opts)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewDeps builds probe dependencies from configuration.
func NewDeps(cfg *config.Config, logger *slog.Logger) (probe.Deps, error) {
	client, err := httpclient.New(cfg.HTTPClientConfig())
	if err != nil {
		return probe.Deps{}, err
	}
	exec := httpclient.NewExecutor(
		httpclient.WithClient(client),
		httpclient.WithLogger(logger),
		httpclient.WithRequestsPerSecond(cfg.HTTP.RPS),
		httpclient.WithMaxBodySize(cfg.HTTP.MaxBodySize),
		httpclient.WithBurstWorkers(cfg.Scan.BurstWorkers),
	)

	analyzer := differential.New()
	analyzer.Threshold = cfg.Scan.DiffThreshold
	analyzer.SimilarityFloor = cfg.Scan.SimilarityFloor

	profiler := timing.New()
	profiler.Samples = cfg.Scan.BaselineSamples

	return probe.Deps{
		Executor: exec,
		Analyzer: analyzer,
		Profiler: profiler,
		Logger:   logger,
	}.WithDefaults(), nil
}

// NewScanner builds a scanner over the default registry.
func NewScanner(cfg *config.Config, logger *slog.Logger, opts ...scanner.Option) (*scanner.Scanner, error) {
	deps, err := NewDeps(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := scanner.BuildRegistry(deps, scanner.Options{BurstSize: cfg.Scan.BurstSize})
	return scanner.New(reg, append([]scanner.Option{scanner.WithLogger(logger)}, opts...)...), nil
}

// NewDispatcher builds the event dispatcher with whichever of the
// metrics and tracing hooks cfg enables. eventLog adds a hook logging
// every event through logger. Close the dispatcher to stop the metrics
// server and flush traces.
func NewDispatcher(cfg *config.Config, logger *slog.Logger, eventLog bool) (*dispatcher.Dispatcher, error) {
	d := dispatcher.New(dispatcher.Config{Logger: logger})
	if eventLog {
		d.RegisterHook(hooks.NewLoggerHook(logger))
	}

	if cfg.Metrics.Enabled {
		h, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{
			Addr:   cfg.Metrics.Addr,
			Path:   cfg.Metrics.Path,
			Logger: logger,
		})
		if err != nil {
			return nil, errors.Join(err, d.Close())
		}
		d.RegisterHook(h)
		logger.Info("serving metrics", slog.String("addr", h.MetricsAddr()))
	}

	if cfg.Tracing.Enabled {
		h, err := hooks.NewOTelHook(hooks.OTelOptions{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.Service,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			return nil, errors.Join(err, d.Close())
		}
		d.RegisterHook(h)
	}

	return d, nil
}
