package payloads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/target"
)

func TestPayloadsOrder(t *testing.T) {
	c := Default()

	sql := c.Values(SQL, target.REST)
	require.Len(t, sql, 6)
	assert.Equal(t, `' OR '1'='1' --`, sql[0])
	assert.Equal(t, `1 AND (SELECT * FROM (SELECT(SLEEP(5)))`, sql[5])

	xss := c.Values(XSS, target.REST)
	require.Len(t, xss, 5)
	assert.Equal(t, `<script>alert(document.cookie)</script>`, xss[0])
	assert.Equal(t, `{{7*7}}`, xss[4])

	ssrf := c.Values(SSRF, target.REST)
	assert.Equal(t, []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://127.0.0.1:22",
		"http://localhost:8080",
		"file:///etc/passwd",
	}, ssrf)
}

func TestSharedClassesServeEveryProtocol(t *testing.T) {
	c := Default()
	for _, p := range target.Protocols {
		for _, cl := range []Class{SQL, XSS, SSRF} {
			assert.Equal(t, c.Values(cl, target.REST), c.Values(cl, p), "%s/%s", cl, p)
		}
	}
}

func TestUnknownCombinationsAreEmpty(t *testing.T) {
	c := Default()
	tests := []struct {
		class    Class
		protocol target.Protocol
	}{
		{GraphQL, target.REST},
		{GraphQL, target.SOAP},
		{SQL, target.Protocol("FOO")},
		{Class("ldap"), target.REST},
	}
	for _, tt := range tests {
		got := c.Payloads(tt.class, tt.protocol)
		assert.NotNil(t, got)
		assert.Empty(t, got, "%s/%s", tt.class, tt.protocol)
	}
}

func TestGraphQLPayloads(t *testing.T) {
	c := Default()
	list := c.Payloads(GraphQL, target.GraphQL)
	require.Len(t, list, 4)
	assert.Equal(t, []string{GraphQLIntrospection, GraphQLSQLInjection, GraphQLXSS, GraphQLDoS},
		[]string{list[0].Name, list[1].Name, list[2].Name, list[3].Name})

	intro, ok := c.GraphQL(GraphQLIntrospection)
	require.True(t, ok)
	assert.Contains(t, intro.Value, "__schema")

	dos, ok := c.GraphQL(GraphQLDoS)
	require.True(t, ok)
	assert.Equal(t, 4, strings.Count(dos.Value, "friends(first: 1)"))

	_, ok = c.GraphQL("mutation")
	assert.False(t, ok)
}

func TestPayloadsReturnsCopy(t *testing.T) {
	c := Default()
	list := c.Payloads(SQL, target.REST)
	list[0].Value = "mutated"
	assert.NotEqual(t, "mutated", c.Payloads(SQL, target.REST)[0].Value)
}

func TestDeterministic(t *testing.T) {
	a := build()
	b := build()
	for _, p := range target.Protocols {
		for _, cl := range []Class{SQL, XSS, SSRF, GraphQL} {
			assert.Equal(t, a.Payloads(cl, p), b.Payloads(cl, p))
		}
	}
}

func TestClasses(t *testing.T) {
	c := Default()
	assert.Equal(t, []Class{SQL, XSS, SSRF}, c.Classes(target.REST))
	assert.Equal(t, []Class{SQL, XSS, SSRF, GraphQL}, c.Classes(target.GraphQL))
	assert.Empty(t, c.Classes(target.Protocol("FOO")))
}

func TestFixedPayloads(t *testing.T) {
	tp, fp := BooleanPair()
	assert.Equal(t, `id' AND 1=1 --`, tp)
	assert.Equal(t, `id' AND 1=2 --`, fp)

	delays := TimeDelay()
	require.Len(t, delays, 5)
	assert.Contains(t, delays[4].Value, "PG_SLEEP")

	assert.Contains(t, XXE(), `<!ENTITY xxe SYSTEM "file:///etc/passwd">`)
	assert.Contains(t, XXE(), "&xxe;")
}

func TestWithOverridesWithoutMutating(t *testing.T) {
	base := Default()
	custom := base.With(XSS, target.REST, "<b>x</b>")

	assert.Equal(t, []string{"<b>x</b>"}, custom.Values(XSS, target.REST))
	assert.NotEqual(t, []string{"<b>x</b>"}, base.Values(XSS, target.REST))
	// SOAP still reads the shared list.
	assert.Equal(t, base.Values(XSS, target.SOAP), custom.Values(XSS, target.SOAP))

	shared := base.With(SQL, "", "1'")
	assert.Equal(t, []string{"1'"}, shared.Values(SQL, target.SOAP))
}
