package ssrf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

func TestMetadataFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get(Param), "169.254.169.254") {
			_, _ = w.Write([]byte("ami-id\ninstance-id\nMETADATA-token"))
			return
		}
		_, _ = w.Write([]byte("fetched"))
	}))
	defer server.Close()

	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)

	first := payloads.Default().Values(payloads.SSRF, target.REST)[0]
	assert.Equal(t, TestREST, r.TestName)
	assert.True(t, r.Vulnerable)
	assert.Equal(t, 0.8, r.Confidence)
	assert.Equal(t, first, r.PayloadText())
	assert.Equal(t, "SSRF vulnerability detected with payload: "+first, r.Description)
	assert.Equal(t, "Restrict outbound connections and validate URLs", r.Recommendation)
}

func TestCleanAndFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"rejected"}`))
	}))
	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.Equal(t, "No SSRF vulnerabilities detected", r.Description)
	assert.Equal(t, "Monitor for internal service exposure", r.Recommendation)

	server.Close()
	r, err = NewTester(probe.Deps{}).Run(context.Background(), target.New(target.REST, server.URL))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.True(t, strings.HasPrefix(r.Description, "Test failed: "))
	assert.Equal(t, "Check request format", r.Recommendation)
}

func TestNotApplicable(t *testing.T) {
	r, err := NewTester(probe.Deps{}).Run(context.Background(), target.New(target.SOAP, "http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.Equal(t, "SSRF test only available for REST APIs in this module", r.Description)
}

func TestIndicatesInternalAccess(t *testing.T) {
	assert.True(t, IndicatesInternalAccess("connected to LOCALHOST"))
	assert.True(t, IndicatesInternalAccess(`{"Metadata":{}}`))
	assert.False(t, IndicatesInternalAccess("127.0.0.1"))
}
