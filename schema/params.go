package schema

// ParamOption declares one piece of parameter metadata for Annotate and
// Normalize. Only the options passed are applied; absent options leave
// the validator untouched.
type ParamOption func(*params)

type params struct {
	required *bool

	description    string
	hasDescription bool

	defaultValue any
	hasDefault   bool

	example    any
	hasExample bool

	format    string
	hasFormat bool

	deprecated bool
}

// Required sets whether the parameter must be supplied. Required(false)
// makes it optional.
func Required(required bool) ParamOption {
	return func(p *params) {
		p.required = &required
	}
}

// Description sets the parameter description.
func Description(description string) ParamOption {
	return func(p *params) {
		p.description = description
		p.hasDescription = true
	}
}

// Default sets the parameter default. Zero values are kept as
// defaults.
func Default(value any) ParamOption {
	return func(p *params) {
		p.defaultValue = value
		p.hasDefault = true
	}
}

// Example sets the documentation example.
func Example(value any) ParamOption {
	return func(p *params) {
		p.example = value
		p.hasExample = true
	}
}

// Format sets the string format.
func Format(format string) ParamOption {
	return func(p *params) {
		p.format = format
		p.hasFormat = true
	}
}

// Deprecated marks the parameter as deprecated.
func Deprecated() ParamOption {
	return func(p *params) {
		p.deprecated = true
	}
}

func collect(opts []ParamOption) *params {
	p := &params{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Annotate decorates v with parameter metadata. Options apply in a fixed
// order: required, description, default, example, format, deprecated.
// Without options v is returned unchanged; otherwise v itself is not
// modified.
func Annotate(v *Validator, opts ...ParamOption) *Validator {
	if len(opts) == 0 {
		return v
	}

	p := collect(opts)
	out := v.clone()

	if p.required != nil {
		out.optional = !*p.required
	}

	if p.hasDescription {
		out.description = p.description
	}

	if p.hasDefault {
		out.hasDefault = true
		out.defaultValue = p.defaultValue
	}

	if p.hasExample {
		out.hasExample = true
		out.example = p.example
	}

	if p.hasFormat {
		out.format = p.format
	}

	if p.deprecated {
		out.deprecated = true
	}

	return out
}
