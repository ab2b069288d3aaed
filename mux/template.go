package mux

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// patterns holds compiled expressions by source. Routes sharing a
// variable pattern share one *regexp.Regexp.
var patterns sync.Map // map[string]*regexp.Regexp

func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := patterns.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := patterns.LoadOrStore(pattern, re)

	return actual.(*regexp.Regexp), nil
}

// pathTemplate is a compiled route path.
type pathTemplate struct {
	template string
	regexp   *regexp.Regexp
	varsN    []string
	varsR    []varMatcher
	prefix   bool
}

// newPathTemplate compiles tpl. A prefix template matches the path itself
// and everything below it.
func newPathTemplate(tpl string, prefix bool) (*pathTemplate, error) {
	idxs, err := braceIndices(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern bytes.Buffer
		varsN   []string
		varsR   []varMatcher
		end     int
	)

	pattern.WriteByte('^')

	for i := 0; i < len(idxs); i += 2 {
		raw := tpl[end:idxs[i]]
		end = idxs[i+1]

		name, patt, hasPattern := strings.Cut(tpl[idxs[i]+1:end-1], ":")
		if name == "" {
			return nil, fmt.Errorf("mux: missing name in %q from %q", tpl[idxs[i]:end], tpl)
		}

		var matcher varMatcher
		if hasPattern {
			patt, matcher = expandMacro(patt)
		} else {
			patt = "[^/]+"
		}

		if matcher == nil {
			re, err := compileRegexp("^" + patt + "$")
			if err != nil {
				return nil, fmt.Errorf("mux: invalid pattern %q in variable %q: %w", patt, name, err)
			}
			matcher = re
		}

		fmt.Fprintf(&pattern, "%s(%s)", regexp.QuoteMeta(raw), patt)
		varsN = append(varsN, name)
		varsR = append(varsR, matcher)
	}

	tail := tpl[end:]
	pattern.WriteString(regexp.QuoteMeta(tail))

	switch {
	case !prefix:
		pattern.WriteByte('$')
	case !strings.HasSuffix(tail, "/"):
		// "/api" covers "/api" and "/api/...", not "/apis".
		pattern.WriteString("(?:/|$)")
	}

	if err := checkDuplicateVars(varsN); err != nil {
		return nil, err
	}

	re, err := compileRegexp(pattern.String())
	if err != nil {
		return nil, err
	}

	return &pathTemplate{
		template: tpl,
		regexp:   re,
		varsN:    varsN,
		varsR:    varsR,
		prefix:   prefix,
	}, nil
}

// match reports whether path matches and, if so, writes the variables
// into dst.
func (t *pathTemplate) match(path string, dst map[string]string) bool {
	matches := t.regexp.FindStringSubmatch(path)
	if matches == nil {
		return false
	}

	for i := range t.varsN {
		// Macro length limits are checked on the extracted value.
		if !t.varsR[i].MatchString(matches[i+1]) {
			return false
		}
	}

	if dst != nil {
		for i, name := range t.varsN {
			dst[name] = matches[i+1]
		}
	}

	return true
}

// braceIndices returns the start and end+1 indices of each top-level
// {...} pair in s.
func braceIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '}':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("mux: unbalanced braces in %q", s)
			}
		}
	}

	if level != 0 {
		return nil, fmt.Errorf("mux: unbalanced braces in %q", s)
	}

	return idxs, nil
}

func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("mux: duplicated route variable %q", v)
		}
		seen[v] = true
	}

	return nil
}
