package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ParseProxyURL validates a proxy URL. An empty string means no proxy.
// A missing scheme defaults to http.
func ParseProxyURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q, supported: http, https, socks5, socks5h", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("proxy URL missing host")
	}
	return u, nil
}

// applyProxy wires an HTTP CONNECT proxy or a SOCKS dialer into t.
func applyProxy(t *http.Transport, raw string, dialTimeout time.Duration) error {
	u, err := ParseProxyURL(raw)
	if err != nil || u == nil {
		return err
	}
	if strings.HasPrefix(strings.ToLower(u.Scheme), "socks") {
		d, err := proxy.FromURL(u, &net.Dialer{Timeout: dialTimeout})
		if err != nil {
			return fmt.Errorf("creating SOCKS dialer: %w", err)
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
		t.Proxy = nil
		return nil
	}
	t.Proxy = http.ProxyURL(u)
	return nil
}
