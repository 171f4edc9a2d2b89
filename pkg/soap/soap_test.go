package soap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/probe"
	"github.com/waftester/apiprobe/pkg/target"
)

// soapServer answers every request with respond(body) and keeps the
// request bodies and content types.
type soapServer struct {
	respond func(body string) string

	mu     sync.Mutex
	bodies []string
	types  []string
}

func (s *soapServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, string(b))
	s.types = append(s.types, r.Header.Get("Content-Type"))
	s.mu.Unlock()
	_, _ = w.Write([]byte(s.respond(string(b))))
}

func soapTarget(url string) *target.Target {
	return target.New(target.SOAP, url)
}

func TestInject(t *testing.T) {
	got := Inject(DefaultEnvelope, "' OR 1=1")
	assert.Equal(t, "<soap:Envelope><soap:Body><test>' OR 1=1</test></soap:Body></soap:Envelope>", got)

	assert.Equal(t, "<plain/>", Inject("<plain/>", "x"))

	ns := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><ns:GetUser/></soap:Body></soap:Envelope>`
	assert.Contains(t, Inject(ns, "p"), "<ns:GetUser/><test>p</test></soap:Body>")
}

func TestEnvelopeOf(t *testing.T) {
	tg := soapTarget("http://h")
	assert.Equal(t, DefaultEnvelope, EnvelopeOf(tg))

	tg.Body = target.TextBody("<soap:Envelope><soap:Body><GetUser/></soap:Body></soap:Envelope>")
	assert.Contains(t, EnvelopeOf(tg), "<GetUser/>")

	tg.Body = target.JSONBody(map[string]any{"a": 1})
	assert.Equal(t, DefaultEnvelope, EnvelopeOf(tg))
}

func TestParseFault(t *testing.T) {
	body := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<soap:Fault><faultcode>soap:Server</faultcode><faultstring>SQL error near '</faultstring></soap:Fault>` +
		`</soap:Body></soap:Envelope>`
	f, ok := ParseFault(body)
	require.True(t, ok)
	assert.Equal(t, "soap:Server", f.Code)
	assert.Equal(t, "SQL error near '", f.String)

	_, ok = ParseFault("<ok/>")
	assert.False(t, ok)
	_, ok = ParseFault("not xml")
	assert.False(t, ok)
}

func TestProbes(t *testing.T) {
	sqlFirst := payloads.Default().Values(payloads.SQL, target.SOAP)[0]
	xssFirst := payloads.Default().Values(payloads.XSS, target.SOAP)[0]
	ssrfFirst := payloads.Default().Values(payloads.SSRF, target.SOAP)[0]

	echo := func(body string) string { return "<Response>" + body + "</Response>" }
	fault := func(string) string { return "<Fault><faultstring>Database ERROR</faultstring></Fault>" }
	quiet := func(string) string { return "<Response>ok</Response>" }

	type run func(*Tester, context.Context, *target.Target) (finding.Result, error)
	tests := []struct {
		name     string
		fn       run
		respond  func(string) string
		wantName string
		wantVuln bool
		wantPay  string
		wantDesc string
		wantRec  string
	}{
		{"sql hit", (*Tester).SQL, fault, TestSQL, true, sqlFirst,
			"SQL Injection vulnerability detected with payload: " + sqlFirst, "Use parameterized queries and validate XML input"},
		{"sql clean", (*Tester).SQL, quiet, TestSQL, false, "",
			"No SQL Injection vulnerabilities detected", "Continue to validate and sanitize inputs"},
		{"xss hit", (*Tester).XSS, echo, TestXSS, true, xssFirst,
			"XSS vulnerability detected with payload: " + xssFirst, "Sanitize XML input and implement Content Security Policy"},
		{"xss clean", (*Tester).XSS, quiet, TestXSS, false, "",
			"No XSS vulnerabilities detected", "Continue to sanitize inputs"},
		{"ssrf hit", (*Tester).SSRF, func(string) string { return "instance metadata" }, TestSSRF, true, ssrfFirst,
			"SSRF vulnerability detected with payload: " + ssrfFirst, "Restrict outbound connections and validate URLs in XML"},
		{"ssrf clean", (*Tester).SSRF, quiet, TestSSRF, false, "",
			"No SSRF vulnerabilities detected", "Continue to validate URLs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &soapServer{respond: tt.respond}
			server := httptest.NewServer(fake)
			defer server.Close()

			r, err := tt.fn(NewTester(probe.Deps{}), context.Background(), soapTarget(server.URL))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, r.TestName)
			assert.Equal(t, tt.wantVuln, r.Vulnerable)
			assert.Equal(t, tt.wantPay, r.PayloadText())
			assert.Equal(t, tt.wantDesc, r.Description)
			assert.Equal(t, tt.wantRec, r.Recommendation)
			if tt.wantVuln {
				assert.Equal(t, 0.8, r.Confidence)
			} else {
				assert.Zero(t, r.Confidence)
			}

			require.NotEmpty(t, fake.bodies)
			assert.True(t, strings.HasPrefix(fake.bodies[0], "<soap:Envelope><soap:Body><test>"))
			assert.Equal(t, "text/xml; charset=utf-8", fake.types[0])
		})
	}
}

func TestUsesTargetEnvelope(t *testing.T) {
	fake := &soapServer{respond: func(string) string { return "fine" }}
	server := httptest.NewServer(fake)
	defer server.Close()

	tg := soapTarget(server.URL)
	tg.Body = target.TextBody(`<soap:Envelope><soap:Body><GetUser id="1"/></soap:Body></soap:Envelope>`)
	_, err := NewTester(probe.Deps{}).XSS(context.Background(), tg)
	require.NoError(t, err)

	for _, b := range fake.bodies {
		assert.True(t, strings.HasPrefix(b, `<soap:Envelope><soap:Body><GetUser id="1"/><test>`), b)
	}
	assert.Len(t, fake.bodies, len(payloads.Default().Values(payloads.XSS, target.SOAP)))
}

func TestFailureAndMismatch(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	tester := NewTester(probe.Deps{})
	r, err := tester.SSRF(context.Background(), soapTarget(url))
	require.NoError(t, err)
	assert.False(t, r.Vulnerable)
	assert.True(t, strings.HasPrefix(r.Description, "Test failed: "))
	assert.Equal(t, "Check SOAP request format", r.Recommendation)

	r, err = tester.SQL(context.Background(), target.New(target.REST, url))
	require.NoError(t, err)
	assert.Equal(t, TestSQL, r.TestName)
	assert.Equal(t, "N/A", r.Recommendation)
}
