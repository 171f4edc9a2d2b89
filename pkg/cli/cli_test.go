package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/config"
	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/output/events"
	"github.com/waftester/apiprobe/pkg/target"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "apiprobe.log")
	var console bytes.Buffer
	logger, closer, err := NewLogger(config.LogConfig{
		Level:      "debug",
		Format:     "text",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	}, &console)
	require.NoError(t, err)

	logger.Debug("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, console.String(), "to both")
}

func TestNewLogger_BadFormat(t *testing.T) {
	_, _, err := NewLogger(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewDeps_AppliesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.DiffThreshold = 0.5
	cfg.Scan.SimilarityFloor = 0.9
	cfg.Scan.BaselineSamples = 5
	cfg.Scan.BurstWorkers = 8

	deps, err := NewDeps(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	assert.NotNil(t, deps.Executor)
	assert.NotNil(t, deps.Catalog)
	assert.Equal(t, 0.5, deps.Analyzer.Threshold)
	assert.Equal(t, 0.9, deps.Analyzer.SimilarityFloor)
	assert.Equal(t, 5, deps.Profiler.Samples)
	assert.Equal(t, 8, deps.Executor.BurstWorkers())
}

func TestNewScanner_UnsupportedProtocol(t *testing.T) {
	s, err := NewScanner(config.Default(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	out := s.Run(context.Background(), &target.Target{Protocol: "FTP", URL: "ftp://example.invalid"})
	require.Len(t, out, 1)
	assert.Equal(t, "API Type", out[0].TestName)
	assert.False(t, out[0].Vulnerable)
}

func TestNewDispatcher_MetricsServer(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"

	var buf bytes.Buffer
	d, err := NewDispatcher(cfg, slog.New(slog.NewTextHandler(&buf, nil)), false)
	require.NoError(t, err)
	assert.NoError(t, d.Close())
	assert.Contains(t, buf.String(), "serving metrics")
}

func TestNewDispatcher_EventLog(t *testing.T) {
	var buf bytes.Buffer
	d, err := NewDispatcher(config.Default(), slog.New(slog.NewTextHandler(&buf, nil)), true)
	require.NoError(t, err)

	r := finding.Vulnerable("XSS (REST)", 0.8, "XSS vulnerability detected", "<script>", "Sanitize")
	require.NoError(t, d.Dispatch(context.Background(), events.NewResult("s1", 0, "xss", events.TargetInfo{}, r, time.Millisecond, false, time.Time{})))
	assert.NoError(t, d.Close())

	out := buf.String()
	assert.Contains(t, out, "probe finished")
	assert.Contains(t, out, "level=WARN")
	assert.NotContains(t, out, "serving metrics")
}
