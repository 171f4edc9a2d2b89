package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// Sentinel errors for transport failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrTimeout indicates the request did not complete in time.
	ErrTimeout = errors.New("httpclient: timeout")

	// ErrConnReset indicates the peer reset the connection.
	ErrConnReset = errors.New("httpclient: connection reset")

	// ErrConnRefused indicates nothing was listening on the target port.
	ErrConnRefused = errors.New("httpclient: connection refused")

	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake or certificate verification failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")

	// ErrProxyConnect indicates the client failed to use the configured
	// proxy.
	ErrProxyConnect = errors.New("httpclient: proxy connection failed")

	// ErrTransport covers transport failures that fit no other kind.
	ErrTransport = errors.New("httpclient: transport failure")
)

// Kind classifies a NetworkError.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindConnReset
	KindConnRefused
	KindDNS
	KindTLS
	KindProxy
)

// String is part of NetworkError's message. The timeout and reset
// spellings are relied on by probes that match failure text.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnReset:
		return "connection reset"
	case KindConnRefused:
		return "connection refused"
	case KindDNS:
		return "dns failure"
	case KindTLS:
		return "tls failure"
	case KindProxy:
		return "proxy failure"
	default:
		return "network error"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindConnReset:
		return ErrConnReset
	case KindConnRefused:
		return ErrConnRefused
	case KindDNS:
		return ErrDNS
	case KindTLS:
		return ErrTLS
	case KindProxy:
		return ErrProxyConnect
	default:
		return ErrTransport
	}
}

// NetworkError is returned when the transport could not complete a
// request. It never carries an HTTP status: any response, including a
// 5xx, is a Snapshot.
type NetworkError struct {
	Kind   Kind
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *NetworkError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// Timeout reports whether the failure was a timeout.
func (e *NetworkError) Timeout() bool { return e.Kind == KindTimeout }

// newNetworkError classifies err.
func newNetworkError(method, rawURL string, err error) *NetworkError {
	return &NetworkError{Kind: Classify(err), Method: method, URL: rawURL, Err: err}
}

// Classify maps a transport error onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindConnReset
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnRefused
	}

	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) {
		return KindTLS
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"):
		return KindConnReset
	case strings.Contains(msg, "connection refused"):
		return KindConnRefused
	case strings.Contains(msg, "proxyconnect"), strings.Contains(msg, "socks"):
		return KindProxy
	case strings.Contains(msg, "tls:"), strings.Contains(msg, "x509:"):
		return KindTLS
	case strings.Contains(msg, "no such host"):
		return KindDNS
	}
	return KindOther
}
