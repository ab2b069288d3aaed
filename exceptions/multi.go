package exceptions

import (
	"errors"
	"net/http"
	"strings"
)

// Multi aggregates several exceptions into one response.
//
// The response status is the highest member status. If any member is not
// visible, every member message is hidden; codes and paths are kept.
type Multi struct {
	Errors []Responder
}

// NewMulti returns a Multi holding errs.
func NewMulti(errs ...Responder) *Multi {
	return &Multi{Errors: errs}
}

// Add appends err to the aggregate.
func (m *Multi) Add(err Responder) {
	m.Errors = append(m.Errors, err)
}

// Error implements the error interface.
func (m *Multi) Error() string {
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, "; ")
}

// Unwrap exposes the members to errors.Is and errors.As.
func (m *Multi) Unwrap() []error {
	out := make([]error, 0, len(m.Errors))
	for _, err := range m.Errors {
		out = append(out, err)
	}

	return out
}

// HTTPStatus returns the maximum member status, or 500 for an empty aggregate.
func (m *Multi) HTTPStatus() int {
	status := 0
	for _, err := range m.Errors {
		if s := err.HTTPStatus(); s > status {
			status = s
		}
	}

	if status == 0 {
		return http.StatusInternalServerError
	}

	return status
}

// Visible reports whether every member is visible.
func (m *Multi) Visible() bool {
	for _, err := range m.Errors {
		if !err.Visible() {
			return false
		}
	}

	return true
}

// RetryAfter returns the largest member Retry-After value in seconds.
func (m *Multi) RetryAfter() int {
	out := 0
	for _, err := range m.Errors {
		if v := retryAfter(err); v > out {
			out = v
		}
	}

	return out
}

// BuildResponse flattens the responses of all members.
func (m *Multi) BuildResponse() []Detail {
	hide := !m.Visible()

	var out []Detail
	for _, err := range m.Errors {
		for _, d := range err.BuildResponse() {
			if hide {
				d.Message = HiddenMessage
			}
			out = append(out, d)
		}
	}

	return out
}

// RetryAfter returns the Retry-After value carried by err, or zero.
func RetryAfter(err error) int {
	var r Responder
	if !errors.As(err, &r) {
		return 0
	}

	return retryAfter(r)
}

func retryAfter(r Responder) int {
	switch v := r.(type) {
	case *Exception:
		return v.RetryAfter
	case *Multi:
		return v.RetryAfter()
	}

	return 0
}
