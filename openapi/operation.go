package openapi

import (
	"net/http"
	"strconv"
)

// MergeParameters merges auto-derived parameters with declared ones.
// Declared parameters override derived ones with the same name and
// location; derived ones keep their order and come first.
func MergeParameters(auto, custom []*Parameter) []*Parameter {
	if len(auto) == 0 && len(custom) == 0 {
		return nil
	}

	overrides := make(map[[2]string]struct{}, len(custom))
	for _, p := range custom {
		overrides[[2]string{p.Name, p.In}] = struct{}{}
	}

	var merged []*Parameter
	for _, p := range auto {
		if _, ok := overrides[[2]string{p.Name, p.In}]; !ok {
			merged = append(merged, p)
		}
	}

	return append(merged, custom...)
}

// ResponseDescription returns the default description for a response key:
// the HTTP status text for numeric codes, "Default response" for "default".
//
// See: https://spec.openapis.org/oas/v3.1.0#responses-object
func ResponseDescription(key string) string {
	if key == "default" {
		return "Default response"
	}

	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}

	return key
}

// DefaultResponses is the response map used when a route declares none.
func DefaultResponses() map[string]*Response {
	return map[string]*Response{
		"200": {
			Description: "Successful response",
			Content: map[string]*MediaType{
				"application/json": {Schema: &Schema{}},
			},
		},
	}
}
