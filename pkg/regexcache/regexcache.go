// Package regexcache compiles detection patterns once and shares them
// across probes.
//
// Usage:
//
//	errs := regexcache.MustSet(`(?i)SQL.*error`, `(?i)ORA-[0-9]{5}`)
//	if pattern, ok := errs.FirstMatch(body); ok {
//	    // body matched pattern
//	}
package regexcache

import (
	"fmt"
	"regexp"
	"sync"
)

// cache holds compiled regular expressions keyed by pattern string.
var cache sync.Map

// Get returns a compiled regexp for pattern, compiling it on first use.
func Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// MustGet is Get that panics on an invalid pattern.
func MustGet(pattern string) *regexp.Regexp {
	re, err := Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Set is an ordered list of patterns where any match counts.
type Set struct {
	res []*regexp.Regexp
}

// Compile builds a Set. Pattern order is kept.
func Compile(patterns ...string) (*Set, error) {
	s := &Set{res: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := Get(p)
		if err != nil {
			return nil, fmt.Errorf("regexcache: compiling %q: %w", p, err)
		}
		s.res = append(s.res, re)
	}
	return s, nil
}

// MustSet is Compile that panics on an invalid pattern. Use it for
// package-level tables.
func MustSet(patterns ...string) *Set {
	s, err := Compile(patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// MatchString reports whether any pattern matches s.
func (s *Set) MatchString(str string) bool {
	_, ok := s.FirstMatch(str)
	return ok
}

// FirstMatch returns the first pattern, in Set order, that matches s.
func (s *Set) FirstMatch(str string) (string, bool) {
	for _, re := range s.res {
		if re.MatchString(str) {
			return re.String(), true
		}
	}
	return "", false
}

// Len returns the number of patterns.
func (s *Set) Len() int { return len(s.res) }
