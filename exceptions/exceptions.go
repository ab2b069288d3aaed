package exceptions

import (
	"fmt"
	"net/http"
)

// Stable API error codes reported in the "code" field of error envelopes.
const (
	CodeAPI                 = 7000
	CodeInputValidation     = 7001
	CodeNotFound            = 7002
	CodeUnauthorized        = 7003
	CodeForbidden           = 7004
	CodeMethodNotAllowed    = 7005
	CodeConflict            = 7006
	CodeUnprocessableEntity = 7007
	CodeTooManyRequests     = 7008
	CodeInternalServerError = 7009
	CodeBadGateway          = 7010
	CodeServiceUnavailable  = 7011
	CodeGatewayTimeout      = 7012
	CodePayloadTooLarge     = 7013
)

// HiddenMessage replaces the message of every non-visible exception.
const HiddenMessage = "Internal Error"

// Detail is one entry of the "errors" array of an error envelope.
type Detail struct {
	Code    int      `json:"code" yaml:"code"`
	Message string   `json:"message" yaml:"message"`
	Path    []string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Responder is implemented by errors that translate themselves into an
// error envelope. Both *Exception and *Multi satisfy it.
type Responder interface {
	error
	HTTPStatus() int
	Visible() bool
	BuildResponse() []Detail
}

// Exception is a status-code-bearing API error.
type Exception struct {
	// Status is the HTTP status code of the response.
	Status int

	// Code is the stable numeric API error code.
	Code int

	// Message is the human readable message. It reaches the client only
	// when IsVisible is true.
	Message string

	// IsVisible reports whether Message may be exposed to the client.
	IsVisible bool

	// IncludesPath reports whether Path is part of the response.
	IncludesPath bool

	// Path points at the input field that caused the error,
	// e.g. ["body", "email"].
	Path []string

	// RetryAfter, when positive, is sent as the Retry-After header in seconds.
	RetryAfter int

	// Err is the underlying cause, if any. It never reaches the client.
	Err error
}

// New returns a hidden 500 exception with the base API code.
func New(message string) *Exception {
	return &Exception{
		Status:  http.StatusInternalServerError,
		Code:    CodeAPI,
		Message: withDefault(message, HiddenMessage),
	}
}

// Wrap returns a hidden 500 exception carrying err as its cause.
func Wrap(err error) *Exception {
	e := New(err.Error())
	e.Err = err
	return e
}

// InputValidation returns a 400 exception pointing at path.
func InputValidation(message string, path ...string) *Exception {
	return &Exception{
		Status:       http.StatusBadRequest,
		Code:         CodeInputValidation,
		Message:      withDefault(message, "Input Validation Error"),
		IsVisible:    true,
		IncludesPath: true,
		Path:         path,
	}
}

// NotFound returns a 404 exception.
func NotFound(message string) *Exception {
	return visible(http.StatusNotFound, CodeNotFound, withDefault(message, "Not Found"))
}

// Unauthorized returns a 401 exception.
func Unauthorized(message string) *Exception {
	return visible(http.StatusUnauthorized, CodeUnauthorized, withDefault(message, "Unauthorized"))
}

// Forbidden returns a 403 exception.
func Forbidden(message string) *Exception {
	return visible(http.StatusForbidden, CodeForbidden, withDefault(message, "Forbidden"))
}

// MethodNotAllowed returns a 405 exception.
func MethodNotAllowed(message string) *Exception {
	return visible(http.StatusMethodNotAllowed, CodeMethodNotAllowed, withDefault(message, "Method Not Allowed"))
}

// Conflict returns a 409 exception.
func Conflict(message string) *Exception {
	return visible(http.StatusConflict, CodeConflict, withDefault(message, "Conflict"))
}

// UnprocessableEntity returns a 422 exception pointing at path.
func UnprocessableEntity(message string, path ...string) *Exception {
	e := visible(http.StatusUnprocessableEntity, CodeUnprocessableEntity, withDefault(message, "Unprocessable Entity"))
	e.IncludesPath = true
	e.Path = path

	return e
}

// TooManyRequests returns a 429 exception. A positive retryAfter is sent
// as the Retry-After header.
func TooManyRequests(message string, retryAfter int) *Exception {
	e := visible(http.StatusTooManyRequests, CodeTooManyRequests, withDefault(message, "Too Many Requests"))
	e.RetryAfter = retryAfter

	return e
}

// InternalServerError returns a hidden 500 exception.
func InternalServerError(message string) *Exception {
	return &Exception{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalServerError,
		Message: withDefault(message, "Internal Server Error"),
	}
}

// BadGateway returns a 502 exception.
func BadGateway(message string) *Exception {
	return visible(http.StatusBadGateway, CodeBadGateway, withDefault(message, "Bad Gateway"))
}

// ServiceUnavailable returns a 503 exception. A positive retryAfter is sent
// as the Retry-After header.
func ServiceUnavailable(message string, retryAfter int) *Exception {
	e := visible(http.StatusServiceUnavailable, CodeServiceUnavailable, withDefault(message, "Service Unavailable"))
	e.RetryAfter = retryAfter

	return e
}

// GatewayTimeout returns a 504 exception.
func GatewayTimeout(message string) *Exception {
	return visible(http.StatusGatewayTimeout, CodeGatewayTimeout, withDefault(message, "Gateway Timeout"))
}

// PayloadTooLarge returns a 413 exception for request bodies over the
// configured limit.
func PayloadTooLarge(message string) *Exception {
	return visible(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, withDefault(message, "Payload Too Large"))
}

func visible(status, code int, message string) *Exception {
	return &Exception{
		Status:    status,
		Code:      code,
		Message:   message,
		IsVisible: true,
	}
}

func withDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}

	return message
}

// Error implements the error interface. The full message is returned
// regardless of visibility; only BuildResponse hides it.
func (e *Exception) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Exception) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status code.
func (e *Exception) HTTPStatus() int {
	return e.Status
}

// Visible reports whether the message may reach the client.
func (e *Exception) Visible() bool {
	return e.IsVisible
}

// WithPath returns a copy of e pointing at path.
func (e *Exception) WithPath(path ...string) *Exception {
	out := *e
	out.Path = path
	out.IncludesPath = true

	return &out
}

// BuildResponse returns the envelope entries for this exception.
func (e *Exception) BuildResponse() []Detail {
	d := Detail{
		Code:    e.Code,
		Message: HiddenMessage,
	}

	if e.IsVisible {
		d.Message = e.Message
	}

	if e.IncludesPath && len(e.Path) > 0 {
		d.Path = append([]string(nil), e.Path...)
	}

	return []Detail{d}
}
