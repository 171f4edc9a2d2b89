package httpclient

import "net/http"

// middlewareTransport fills in the configured user agent and default
// headers. Values set by the request itself win.
type middlewareTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if m.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", m.userAgent)
	}
	for k, v := range m.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return m.base.RoundTrip(r)
}
