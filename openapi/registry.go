package openapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Registry is the path map of one router: path -> method -> operation.
//
// It is written while routes are registered and read when the document is
// served. Registration must complete before the first request.
type Registry struct {
	paths           map[string]map[string]*Operation
	securitySchemes map[string]*SecurityScheme
	tags            []Tag
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paths: make(map[string]map[string]*Operation),
	}
}

// Add stores op for (path, method), replacing any previous entry.
func (r *Registry) Add(path, method string, op *Operation) {
	methods, ok := r.paths[path]
	if !ok {
		methods = make(map[string]*Operation)
		r.paths[path] = methods
	}

	methods[strings.ToUpper(method)] = op
}

// Operation returns the operation stored for (path, method).
func (r *Registry) Operation(path, method string) (*Operation, bool) {
	op, ok := r.paths[path][strings.ToUpper(method)]
	return op, ok
}

// Paths returns the registered paths in lexical order.
func (r *Registry) Paths() []string {
	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}

// Len returns the number of (path, method) entries.
func (r *Registry) Len() int {
	n := 0
	for _, methods := range r.paths {
		n += len(methods)
	}

	return n
}

// Merge copies every entry of other under prefix. Entries are deep copied,
// later changes to other do not reach r. Security schemes and tags of other
// are copied when r does not define them.
func (r *Registry) Merge(prefix string, other *Registry) {
	for path, methods := range other.paths {
		merged := JoinPath(prefix, path)
		for method, op := range methods {
			r.Add(merged, method, cloneOperation(op))
		}
	}

	for name, scheme := range other.securitySchemes {
		if _, ok := r.securitySchemes[name]; !ok {
			s := *scheme
			r.AddSecurityScheme(name, &s)
		}
	}

	for _, tag := range other.tags {
		r.AddTag(tag)
	}
}

// AddSecurityScheme registers a named security scheme under components.
func (r *Registry) AddSecurityScheme(name string, scheme *SecurityScheme) {
	if r.securitySchemes == nil {
		r.securitySchemes = make(map[string]*SecurityScheme)
	}
	r.securitySchemes[name] = scheme
}

// AddTag registers a tag description. Tags used by operations are listed
// even when not registered.
func (r *Registry) AddTag(tag Tag) {
	for i, t := range r.tags {
		if t.Name == tag.Name {
			r.tags[i] = tag
			return
		}
	}
	r.tags = append(r.tags, tag)
}

// DocumentConfig holds the document level fields of Registry.Document.
type DocumentConfig struct {
	Version  string
	Info     Info
	Servers  []Server
	Security []SecurityRequirement
}

// Document assembles the OpenAPI document. Operations are copied so the
// document may be modified freely.
//
// See: https://spec.openapis.org/oas/v3.1.0#openapi-object
func (r *Registry) Document(cfg DocumentConfig) *Document {
	version := cfg.Version
	if version == "" {
		version = Version31
	}

	doc := &Document{
		OpenAPI:  version,
		Info:     cfg.Info,
		Servers:  cfg.Servers,
		Paths:    make(map[string]*PathItem, len(r.paths)),
		Security: cfg.Security,
	}

	for path, methods := range r.paths {
		item := &PathItem{}
		for method, op := range methods {
			assignOperation(item, method, cloneOperation(op))
		}
		doc.Paths[path] = item
	}

	if len(r.securitySchemes) > 0 {
		doc.Components = &Components{SecuritySchemes: r.securitySchemes}
	}

	doc.Tags = r.mergeTags(doc.Paths)

	return doc
}

// mergeTags collects tags from operations and merges them with registered
// tags. Registered tag metadata (description) takes precedence. Tags are
// sorted alphabetically by name.
//
// See: https://spec.openapis.org/oas/v3.1.0#tag-object
func (r *Registry) mergeTags(paths map[string]*PathItem) []Tag {
	known := make(map[string]Tag, len(r.tags))
	for _, tag := range r.tags {
		known[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag

	for _, item := range paths {
		for _, op := range item.operations() {
			for _, name := range op.Tags {
				if seen[name] {
					continue
				}
				seen[name] = true
				if tag, ok := known[name]; ok {
					tags = append(tags, tag)
				} else {
					tags = append(tags, Tag{Name: name})
				}
			}
		}
	}

	for _, tag := range r.tags {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

func (p *PathItem) operations() []*Operation {
	var out []*Operation
	for _, op := range []*Operation{p.Get, p.Post, p.Put, p.Delete, p.Patch, p.Head, p.Options, p.Trace} {
		if op != nil {
			out = append(out, op)
		}
	}

	return out
}

// assignOperation sets the operation on the path item for the given
// HTTP method.
func assignOperation(item *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodHead:
		item.Head = op
	case http.MethodOptions:
		item.Options = op
	case http.MethodTrace:
		item.Trace = op
	}
}

// cloneOperation deep copies op through its JSON form.
func cloneOperation(op *Operation) *Operation {
	data, err := json.Marshal(op)
	if err != nil {
		cp := *op
		return &cp
	}

	var out Operation
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *op
		return &cp
	}

	return &out
}
