package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/time/rate"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/iohelper"
	"github.com/waftester/apiprobe/pkg/jsonutil"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/workerpool"
)

// Request is one HTTP call. Params are appended to any query already in
// URL. Body follows target.Body: text is sent verbatim, a structured
// value is sent as JSON.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  target.Params
	Body    target.Body

	// Timeout overrides the client timeout for this call when positive.
	Timeout time.Duration
}

// FromTarget builds the unmodified request a target describes.
func FromTarget(t *target.Target) Request {
	return Request{
		Method:  t.Method,
		URL:     t.URL,
		Headers: t.Headers,
		Params:  t.Params,
		Body:    t.Body,
	}
}

// WithParam returns a copy of r with one query parameter set.
func (r Request) WithParam(key, value string) Request {
	r.Params = r.Params.With(key, value)
	return r
}

// WithBody returns a copy of r with a new body.
func (r Request) WithBody(b target.Body) Request {
	r.Body = b
	return r
}

// Snapshot is a captured response. It is never modified after Send
// returns it.
type Snapshot struct {
	StatusCode int
	Body       string
	Headers    http.Header
	Latency    time.Duration
	Truncated  bool
}

// Len returns the body length in bytes.
func (s *Snapshot) Len() int { return len(s.Body) }

// Fingerprint returns a murmur3 hash of the body.
func (s *Snapshot) Fingerprint() uint64 {
	return murmur3.Sum64([]byte(s.Body))
}

// BurstOutcome is the result of one request in a burst: exactly one of
// Snapshot and Err is set.
type BurstOutcome struct {
	Snapshot *Snapshot
	Err      error
}

// Executor sends probe traffic.
type Executor struct {
	client      *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	maxBody     int64
	burstWorker int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClient sets the HTTP client (default: Default()).
func WithClient(c *http.Client) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRequestsPerSecond paces sequential sends. Zero disables pacing.
// Bursts are never paced.
func WithRequestsPerSecond(rps float64) ExecutorOption {
	return func(e *Executor) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			e.limiter = nil
		}
	}
}

// WithMaxBodySize caps how much of each body is kept.
func WithMaxBodySize(n int64) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// WithBurstWorkers bounds the goroutines used by Burst.
func WithBurstWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.burstWorker = n
		}
	}
}

// BurstWorkers returns the goroutine bound used by Burst.
func (e *Executor) BurstWorkers() int { return e.burstWorker }

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:      Default(),
		logger:      slog.Default(),
		maxBody:     iohelper.DefaultMaxBodySize,
		burstWorker: defaults.BurstWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send performs one request in sequential mode. There are no retries.
// A transport failure is returned as *NetworkError; any HTTP response,
// whatever its status, is a Snapshot.
func (e *Executor) Send(ctx context.Context, req Request) (*Snapshot, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, newNetworkError(req.Method, req.URL, err)
		}
	}
	return e.do(ctx, req)
}

// Burst fires n copies of req concurrently and waits for all of them.
// Outcomes are in request order and include failures; one failing
// request never aborts the others.
func (e *Executor) Burst(ctx context.Context, req Request, n int) []BurstOutcome {
	if n <= 0 {
		return nil
	}
	workers := e.burstWorker
	if workers > n {
		workers = n
	}
	pool := workerpool.New(workers)
	defer pool.Close()

	idx := make([]int, n)
	results, errs := workerpool.Map(pool, idx, func(int) BurstOutcome {
		snap, err := e.do(ctx, req)
		return BurstOutcome{Snapshot: snap, Err: err}
	})
	for i, err := range errs {
		if err != nil {
			results[i] = BurstOutcome{Err: newNetworkError(req.Method, req.URL, err)}
		}
	}
	return results
}

func (e *Executor) do(ctx context.Context, req Request) (*Snapshot, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := buildRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		ne := newNetworkError(method, req.URL, err)
		e.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("url", req.URL),
			slog.String("kind", ne.Kind.String()),
			slog.String("error", err.Error()))
		return nil, ne
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, truncated, err := iohelper.ReadBody(resp.Body, e.maxBody)
	latency := time.Since(start)
	if err != nil {
		return nil, newNetworkError(method, req.URL, err)
	}

	e.logger.Debug("response",
		slog.String("method", method),
		slog.String("url", req.URL),
		slog.Int("status", resp.StatusCode),
		slog.Int("length", len(body)),
		slog.Duration("latency", latency))

	return &Snapshot{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Headers:    resp.Header.Clone(),
		Latency:    latency,
		Truncated:  truncated,
	}, nil
}

func buildRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", ErrTransport, req.URL, err)
	}
	if len(req.Params) > 0 {
		q := req.Params.Encode()
		if u.RawQuery != "" {
			u.RawQuery += "&" + q
		} else {
			u.RawQuery = q
		}
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Body.JSON != nil:
		data, err := jsonutil.Marshal(req.Body.JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding body: %v", ErrTransport, err)
		}
		body = bytes.NewReader(data)
		contentType = defaults.ContentTypeJSON
	case req.Body.Text != "":
		body = strings.NewReader(req.Body.Text)
		contentType = sniffTextType(req.Body.Text)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// sniffTextType picks a content type for an opaque text body.
func sniffTextType(s string) string {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return defaults.ContentTypeXML
	case jsonutil.LooksLikeJSON([]byte(trimmed)) && jsonutil.Valid([]byte(trimmed)):
		return defaults.ContentTypeJSON
	default:
		return defaults.ContentTypePlain
	}
}
