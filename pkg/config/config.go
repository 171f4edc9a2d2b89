// Package config loads apiprobe settings from a YAML file and command
// line flags. Flags win over the file; the file wins over defaults.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/httpclient"
)

// Config holds all apiprobe settings.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Scan    ScanConfig    `yaml:"scan"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Store   StoreConfig   `yaml:"store"`
}

// HTTPConfig configures the request executor.
type HTTPConfig struct {
	Timeout     time.Duration     `yaml:"timeout"`
	UserAgent   string            `yaml:"user_agent"`
	Proxy       string            `yaml:"proxy"`
	Insecure    bool              `yaml:"insecure"`
	RPS         float64           `yaml:"rps"`
	MaxBodySize int64             `yaml:"max_body_size"`
	Headers     map[string]string `yaml:"headers"`
}

// ScanConfig configures probe behavior.
type ScanConfig struct {
	// Tests overrides the default test selection when a target names none.
	Tests []string `yaml:"tests"`

	BurstSize       int     `yaml:"burst_size"`
	BurstWorkers    int     `yaml:"burst_workers"`
	DiffThreshold   float64 `yaml:"diff_threshold"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	BaselineSamples int     `yaml:"baseline_samples"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File enables a rotating log file in addition to stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Prometheus hook.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// TracingConfig configures the OpenTelemetry hook.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	Service  string `yaml:"service"`
}

// StoreConfig selects where results are persisted. An empty kind
// disables storage.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:     duration.HTTPScanning,
			UserAgent:   defaults.UserAgent(""),
			Insecure:    true,
			RPS:         defaults.RequestsPerSecond,
			MaxBodySize: defaults.MaxBodySize,
		},
		Scan: ScanConfig{
			BurstSize:       defaults.BurstSize,
			BurstWorkers:    defaults.BurstWorkers,
			DiffThreshold:   defaults.DiffThreshold,
			SimilarityFloor: defaults.SimilarityFloor,
			BaselineSamples: defaults.BaselineSamples,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Addr: fmt.Sprintf(":%d", defaults.MetricsPort),
			Path: defaults.MetricsPath,
		},
		Tracing: TracingConfig{
			Endpoint: defaults.OTelEndpoint,
			Service:  defaults.ToolName,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.HTTP.Timeout <= 0 {
		bad("http.timeout must be positive")
	}
	if c.HTTP.RPS < 0 {
		bad("http.rps must not be negative")
	}
	if c.HTTP.MaxBodySize <= 0 {
		bad("http.max_body_size must be positive")
	}
	if c.HTTP.Proxy != "" {
		if _, err := httpclient.ParseProxyURL(c.HTTP.Proxy); err != nil {
			bad("http.proxy: %v", err)
		}
	}
	if c.Scan.BurstSize <= 0 {
		bad("scan.burst_size must be positive")
	}
	if c.Scan.BurstWorkers <= 0 {
		bad("scan.burst_workers must be positive")
	}
	if c.Scan.DiffThreshold <= 0 {
		bad("scan.diff_threshold must be positive")
	}
	if c.Scan.SimilarityFloor < 0 || c.Scan.SimilarityFloor > 1 {
		bad("scan.similarity_floor must be within [0, 1]")
	}
	if c.Scan.BaselineSamples <= 0 {
		bad("scan.baseline_samples must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		bad("log.level %q (want debug, info, warn or error)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		bad("log.format %q (want text or json)", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: metrics.addr", ErrMissingRequired))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, fmt.Errorf("%w: tracing.endpoint", ErrMissingRequired))
	}
	switch c.Store.Kind {
	case "":
	case "jsonl", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("%w: store.path", ErrMissingRequired))
		}
	case "mysql":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("%w: store.dsn", ErrMissingRequired))
		}
	default:
		bad("store.kind %q (want jsonl, sqlite or mysql)", c.Store.Kind)
	}
	return errors.Join(errs...)
}

// HTTPClientConfig maps the http section onto the client settings.
func (c *Config) HTTPClientConfig() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.HTTP.Timeout
	hc.UserAgent = c.HTTP.UserAgent
	hc.Proxy = c.HTTP.Proxy
	hc.InsecureSkipVerify = c.HTTP.Insecure
	hc.Headers = c.HTTP.Headers
	return hc
}

// BindFlags registers the flags that override file values on fs. Each
// flag's default is the current value, so flags that are not given
// leave the configuration untouched.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	// === HTTP ===
	fs.DurationVar(&c.HTTP.Timeout, "timeout", c.HTTP.Timeout, "Per-request timeout")
	fs.StringVar(&c.HTTP.UserAgent, "user-agent", c.HTTP.UserAgent, "User-Agent header")
	fs.StringVar(&c.HTTP.UserAgent, "ua", c.HTTP.UserAgent, "User-Agent (alias)")
	fs.StringVar(&c.HTTP.Proxy, "proxy", c.HTTP.Proxy, "HTTP/SOCKS5 proxy URL")
	fs.StringVar(&c.HTTP.Proxy, "x", c.HTTP.Proxy, "Proxy (alias)")
	fs.BoolVar(&c.HTTP.Insecure, "insecure", c.HTTP.Insecure, "Skip TLS verification")
	fs.BoolVar(&c.HTTP.Insecure, "k", c.HTTP.Insecure, "Skip TLS (alias)")
	fs.Float64Var(&c.HTTP.RPS, "rps", c.HTTP.RPS, "Max sequential requests per second (0 = unlimited)")

	// === SCAN ===
	fs.IntVar(&c.Scan.BurstSize, "burst", c.Scan.BurstSize, "Rate limit burst size")
	fs.IntVar(&c.Scan.BurstWorkers, "burst-workers", c.Scan.BurstWorkers, "Goroutines firing the rate limit burst")

	// === LOGGING ===
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "Log format: text, json")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "Rotating log file")

	// === OBSERVABILITY ===
	fs.BoolVar(&c.Metrics.Enabled, "metrics", c.Metrics.Enabled, "Serve Prometheus metrics")
	fs.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Metrics listen address")
	fs.BoolVar(&c.Tracing.Enabled, "otel", c.Tracing.Enabled, "Export traces over OTLP")
	fs.StringVar(&c.Tracing.Endpoint, "otel-endpoint", c.Tracing.Endpoint, "OTLP gRPC endpoint")
	fs.BoolVar(&c.Tracing.Insecure, "otel-insecure", c.Tracing.Insecure, "Plaintext OTLP connection")

	// === STORAGE ===
	fs.StringVar(&c.Store.Kind, "store", c.Store.Kind, "Result store: jsonl, sqlite, mysql")
	fs.StringVar(&c.Store.Path, "store-path", c.Store.Path, "Store file (jsonl, sqlite)")
	fs.StringVar(&c.Store.DSN, "store-dsn", c.Store.DSN, "MySQL DSN")
}

// PathFromArgs finds the value of -config / --config in args without
// parsing anything else.
func PathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// FromArgs builds a Config for a subcommand: defaults, then the -config
// file if args name one, then fs's flags. fs must not be parsed yet;
// FromArgs binds the config flags plus -config and parses args.
func FromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()
	if path := PathFromArgs(args); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	var ignored string
	fs.StringVar(&ignored, "config", "", "YAML configuration file")
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
