package xss

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

func echoServer(escape bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get(Param)
		if escape {
			v = html.EscapeString(v)
		}
		_, _ = w.Write([]byte("<p>You searched for " + v + "</p>"))
	}))
}

func TestReflectedPayload(t *testing.T) {
	server := echoServer(false)
	defer server.Close()

	deps := probe.Deps{Catalog: payloads.Default().With(payloads.XSS, target.REST, "<script>alert(1)</script>")}
	r, err := NewTester(deps).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)

	assert.Equal(t, TestREST, r.TestName)
	assert.True(t, r.Vulnerable)
	assert.Equal(t, 0.8, r.Confidence)
	assert.Equal(t, "<script>alert(1)</script>", r.PayloadText())
	assert.Equal(t, "XSS vulnerability detected with payload: <script>alert(1)</script>", r.Description)
	assert.Equal(t, "Implement input sanitization and CSP headers", r.Recommendation)
}

func TestFirstCatalogPayloadWins(t *testing.T) {
	server := echoServer(false)
	defer server.Close()

	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)
	first := payloads.Default().Values(payloads.XSS, target.REST)[0]
	assert.Equal(t, first, r.PayloadText())
}

func TestEscapedOutputIsClean(t *testing.T) {
	server := echoServer(true)
	defer server.Close()

	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)
	// {{7*7}} and javascript:alert(1) survive HTML escaping unchanged.
	assert.True(t, r.Vulnerable)
	assert.Contains(t, []string{"javascript:alert(1)", "{{7*7}}"}, r.PayloadText())

	catalog := payloads.Default().With(payloads.XSS, target.REST, `<img src=x onerror=alert(1)>`, `"><svg>`)
	r, err = NewTester(probe.Deps{Catalog: catalog}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, "No XSS vulnerabilities detected", r.Description)
	assert.Equal(t, "Regularly test with updated payloads", r.Recommendation)
}

func TestTransportFailureAborts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	url := server.URL
	server.Close()

	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, url))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.Zero(t, r.Confidence)
	assert.True(t, strings.HasPrefix(r.Description, "Test failed: "))
	assert.Equal(t, "Check request format", r.Recommendation)
}

func TestNotApplicable(t *testing.T) {
	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.GraphQL, "http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.Equal(t, "XSS test only available for REST APIs in this module", r.Description)
	assert.Equal(t, "N/A", r.Recommendation)
}

func TestReflected(t *testing.T) {
	assert.True(t, Reflected("a<b>c", "<b>"))
	assert.False(t, Reflected("a&lt;b&gt;c", "<b>"))
	assert.False(t, Reflected("anything", ""))
}
