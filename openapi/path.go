package openapi

import (
	"regexp"
	"strings"
)

// macroTypeMap maps mux route macros to OpenAPI schema type and format.
// The first element is the type, the second is the format (empty if none).
var macroTypeMap = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", ""},
	"float":    {"number", ""},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
}

var (
	// pathVarRegexp matches {name} and {name:pattern} template variables.
	pathVarRegexp = regexp.MustCompile(`\{([^}]+)\}`)

	// colonVarRegexp matches :name and :name? segments.
	colonVarRegexp = regexp.MustCompile(`(^|/):([A-Za-z_][A-Za-z0-9_]*)\??`)

	slashesRegexp = regexp.MustCompile(`/{2,}`)
)

// JoinPath concatenates path segments, collapses repeated slashes, drops
// the trailing slash and rewrites ":name" segments to "{name}".
//
//	JoinPath("/api/", "/v1/", "/users/:id/") // "/api/v1/users/{id}"
func JoinPath(segments ...string) string {
	p := "/" + strings.Join(segments, "/")
	p = slashesRegexp.ReplaceAllString(p, "/")

	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	return colonVarRegexp.ReplaceAllString(p, "$1{$2}")
}

// ParsePath converts a route template into an OpenAPI path and the path
// parameters it declares. Macro variables ({id:uuid}) get a typed schema,
// everything else is a string.
//
// See: https://spec.openapis.org/oas/v3.1.0#path-templating
func ParsePath(tpl string) (string, []*Parameter) {
	var params []*Parameter

	openAPIPath := pathVarRegexp.ReplaceAllStringFunc(tpl, func(match string) string {
		inner := match[1 : len(match)-1]
		varName, macroName, _ := strings.Cut(inner, ":")

		param := &Parameter{
			Name:     varName,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: TypeString("string")},
		}

		if macroName != "" {
			if typeInfo, ok := macroTypeMap[macroName]; ok {
				param.Schema = &Schema{Type: TypeString(typeInfo[0])}
				if typeInfo[1] != "" {
					param.Schema.Format = typeInfo[1]
				}
			}
		}

		params = append(params, param)
		return "{" + varName + "}"
	})

	return openAPIPath, params
}

// PathVariables returns the variable names of a route template in order.
func PathVariables(tpl string) []string {
	_, params := ParsePath(tpl)

	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}

	return names
}

// VersionFor maps the router level version option to a document version.
// "3", "3.0" and any "3.0.x" select 3.0.3; anything else, including "3.1"
// and full "3.1.x" versions, selects 3.1.0.
func VersionFor(option string) string {
	if option == "3" || option == "3.0" || strings.HasPrefix(option, "3.0.") {
		return Version30
	}

	return Version31
}

// IsLegacy reports whether version is an OpenAPI 3.0.x version.
func IsLegacy(version string) bool {
	return strings.HasPrefix(version, "3.0")
}
