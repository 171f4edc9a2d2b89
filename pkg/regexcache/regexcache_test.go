package regexcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCaches(t *testing.T) {
	a, err := Get(`ORA-[0-9]{5}`)
	require.NoError(t, err)
	b, err := Get(`ORA-[0-9]{5}`)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Get(`[unclosed`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustGet(`(`) })
}

func TestSetFirstMatchKeepsOrder(t *testing.T) {
	s := MustSet(`(?i)sql.*error`, `(?i)syntax error`)
	assert.Equal(t, 2, s.Len())

	p, ok := s.FirstMatch("You have an SQL syntax error near '1'")
	require.True(t, ok)
	assert.Equal(t, `(?i)sql.*error`, p)

	p, ok = s.FirstMatch("Syntax error at line 1")
	require.True(t, ok)
	assert.Equal(t, `(?i)syntax error`, p)

	assert.False(t, s.MatchString("all good"))
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile(`ok`, `(`)
	assert.ErrorContains(t, err, `"("`)
	assert.Panics(t, func() { MustSet(`(`) })
}

func TestConcurrentGet(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Get(`token|session`)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
