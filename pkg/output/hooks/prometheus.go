package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes scan metrics for Prometheus scraping.
// Metrics live in a private registry served over promhttp.
type PrometheusHook struct {
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry
	opts     PrometheusOptions

	scansTotal    *prometheus.CounterVec
	resultsTotal  *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	scanDuration  *prometheus.GaugeVec

	// scan ID -> protocol, filled on start
	protocols map[string]string

	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Addr is the listen address for the metrics server (default ":9464").
	// Use "127.0.0.1:0" to pick a free port.
	Addr string

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// DisableServer registers the metrics without serving them.
	DisableServer bool

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// NewPrometheusHook registers the scan metrics and, unless disabled,
// starts serving them. The server runs until Close.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Addr == "" {
		opts.Addr = fmt.Sprintf(":%d", defaults.MetricsPort)
	}
	if opts.Path == "" {
		opts.Path = defaults.MetricsPath
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = duration.HookShutdown
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = duration.HookConnect
	}
	opts.Logger = orDefault(opts.Logger)

	h := &PrometheusHook{
		registry:  prometheus.NewRegistry(),
		opts:      opts,
		protocols: make(map[string]string),
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if opts.DisableServer {
		return h, nil
	}
	if err := h.startServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	return h, nil
}

func (h *PrometheusHook) initMetrics() error {
	ns := defaults.ToolName

	h.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scans_total",
			Help:      "Total number of scans started",
		},
		[]string{"protocol"},
	)

	h.resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "probe_results_total",
			Help:      "Probe results by protocol, requested test and verdict",
		},
		[]string{"protocol", "test", "vulnerable"},
	)

	h.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "findings_total",
			Help:      "Vulnerable results by severity",
		},
		[]string{"severity"},
	)

	h.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "probe_duration_seconds",
			Help:      "Probe run time distribution in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"protocol", "test"},
	)

	h.scanDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "scan_duration_seconds",
			Help:      "Duration of the most recent scan per protocol",
		},
		[]string{"protocol"},
	)

	for _, c := range []prometheus.Collector{
		h.scansTotal,
		h.resultsTotal,
		h.findingsTotal,
		h.probeDuration,
		h.scanDuration,
	} {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (h *PrometheusHook) startServer() error {
	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return err
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, h.Handler())
	h.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.opts.Logger.Error("prometheus: metrics server error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Handler serves the hook's registry.
func (h *PrometheusHook) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the private registry, mainly for tests.
func (h *PrometheusHook) Registry() *prometheus.Registry {
	return h.registry
}

// OnEvent updates the metrics.
func (h *PrometheusHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		h.protocols[e.ScanID()] = e.Target.Protocol
		h.scansTotal.WithLabelValues(e.Target.Protocol).Inc()
	case *events.ResultEvent:
		protocol := e.Target.Protocol
		h.resultsTotal.WithLabelValues(protocol, e.Test, strconv.FormatBool(e.Result.Vulnerable)).Inc()
		if e.Result.Vulnerable {
			h.findingsTotal.WithLabelValues(string(e.Severity)).Inc()
		}
		h.probeDuration.WithLabelValues(protocol, e.Test).Observe(e.Duration().Seconds())
	case *events.CompleteEvent:
		protocol := e.Target.Protocol
		if p, ok := h.protocols[e.ScanID()]; ok {
			protocol = p
			delete(h.protocols, e.ScanID())
		}
		h.scanDuration.WithLabelValues(protocol).Set(e.DurationSec)
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeResult,
		events.EventTypeComplete,
	}
}

// Close shuts down the metrics server.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), duration.HookShutdown)
	defer cancel()
	return h.server.Shutdown(ctx)
}

// MetricsAddr returns the URL where metrics are served, or "" when the
// server is disabled.
func (h *PrometheusHook) MetricsAddr() string {
	if h.listener == nil {
		return ""
	}
	return "http://" + h.listener.Addr().String() + h.opts.Path
}
