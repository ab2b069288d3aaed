package mux

import "regexp"

// varMatcher validates a single route variable value.
// *regexp.Regexp satisfies this interface.
type varMatcher interface {
	MatchString(string) bool
	String() string
}

// boundedMatcher adds a maximum length to a regexp.
type boundedMatcher struct {
	*regexp.Regexp
	maxLen int
}

func (m boundedMatcher) MatchString(s string) bool {
	return len(s) <= m.maxLen && m.Regexp.MatchString(s)
}

type macro struct {
	pattern string
	matcher varMatcher
}

// macros maps {name:macro} names to their patterns. A zero maxLen means
// no length limit.
var macros = func() map[string]macro {
	defs := []struct {
		name    string
		pattern string
		maxLen  int
	}{
		{"uuid", `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`, 0},
		{"int", `[0-9]+`, 0},
		{"float", `[0-9]*\.?[0-9]+`, 0},
		{"slug", `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`, 0},
		{"alpha", `[a-zA-Z]+`, 0},
		{"alphanum", `[a-zA-Z0-9]+`, 0},
		{"date", `[0-9]{4}-[0-9]{2}-[0-9]{2}`, 0},
		{"hex", `[0-9a-fA-F]+`, 0},
		// RFC 1123 labels of 1-63 characters, 253 in total.
		{"domain", `(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`, 253},
	}

	out := make(map[string]macro, len(defs))
	for _, d := range defs {
		re := regexp.MustCompile("^" + d.pattern + "$")

		var m varMatcher = re
		if d.maxLen > 0 {
			m = boundedMatcher{Regexp: re, maxLen: d.maxLen}
		}

		out[d.name] = macro{pattern: d.pattern, matcher: m}
	}

	return out
}()

// expandMacro returns the pattern and matcher of a macro name. Unknown
// names are returned unchanged with a nil matcher.
func expandMacro(name string) (string, varMatcher) {
	if m, ok := macros[name]; ok {
		return m.pattern, m.matcher
	}

	return name, nil
}
