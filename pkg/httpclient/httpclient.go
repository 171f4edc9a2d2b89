// Package httpclient provides the HTTP client factory and the request
// executor every probe sends traffic through.
//
// The executor has two modes. Send is the sequential mode: one request,
// one attempt, optionally paced, used by every timing-sensitive probe.
// Burst is the fan-out mode: n identical requests in flight at once with
// every outcome collected, used only by the rate-limit probe.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout bounds every request end to end (default: 30s).
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification (default: true).
	InsecureSkipVerify bool

	// Proxy is an http, https, socks5 or socks5h proxy URL (optional).
	Proxy string

	// UserAgent is set on requests that carry none (default: apiprobe/<version>).
	UserAgent string

	// Headers are added to every request unless the request sets them.
	Headers map[string]string

	// MaxIdleConns is the idle pool size across hosts (default: 100).
	MaxIdleConns int

	// MaxConnsPerHost must admit a full burst (default: 100).
	MaxConnsPerHost int

	// DialTimeout is the TCP connect timeout (default: 10s).
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the TLS handshake timeout (default: 10s).
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns defaults sized for probe traffic.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.HTTPScanning,
		InsecureSkipVerify:  true,
		UserAgent:           defaults.UserAgent(""),
		MaxIdleConns:        defaults.MaxIdleConns,
		MaxConnsPerHost:     defaults.MaxConnsPerHost,
		DialTimeout:         duration.DialTimeout,
		TLSHandshakeTimeout: duration.TLSHandshake,
	}
}

// WithTimeout returns DefaultConfig with the given timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared client built from DefaultConfig.
func Default() *http.Client {
	defaultOnce.Do(func() {
		c, err := New(DefaultConfig())
		if err != nil {
			// DefaultConfig has no proxy, so New cannot fail.
			panic(err)
		}
		defaultClient = c
	})
	return defaultClient
}

// New creates a client. Redirects are never followed: probes must see
// the response the target actually produced.
func New(cfg Config) (*http.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = duration.HTTPScanning
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaults.MaxIdleConns
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = defaults.MaxConnsPerHost
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = duration.DialTimeout
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = duration.TLSHandshake
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       duration.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: duration.ExpectContinue,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // scanning targets with self-signed certs
		},
	}

	if err := applyProxy(transport, cfg.Proxy, cfg.DialTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyConnect, err)
	}

	var rt http.RoundTripper = transport
	if cfg.UserAgent != "" || len(cfg.Headers) > 0 {
		rt = &middlewareTransport{
			base:      transport,
			userAgent: cfg.UserAgent,
			headers:   cfg.Headers,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}
