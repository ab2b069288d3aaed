package exceptions

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vitalvas/openroute/schema"
)

// Envelope is the JSON body written for every failed request.
//
//	{"success": false, "errors": [{"code": 7002, "message": "Not Found"}], "result": {}}
type Envelope struct {
	Success bool           `json:"success"`
	Errors  []Detail       `json:"errors"`
	Result  map[string]any `json:"result"`
}

// NewEnvelope builds the envelope for r.
func NewEnvelope(r Responder) Envelope {
	errs := r.BuildResponse()
	if errs == nil {
		errs = []Detail{}
	}

	return Envelope{
		Success: false,
		Errors:  errs,
		Result:  map[string]any{},
	}
}

// Write serializes the envelope for r to w with the status of r.
func Write(w http.ResponseWriter, r Responder) {
	if v := retryAfter(r); v > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(v))
	}

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(r.HTTPStatus())

	_ = json.NewEncoder(w).Encode(NewEnvelope(r))
}

// FromValidation converts structural validation issues into a 400 aggregate,
// one input validation exception per issue.
func FromValidation(err *schema.ValidationError) *Multi {
	m := &Multi{}
	for _, issue := range err.Issues {
		m.Add(InputValidation(issue.Message, issue.Path...))
	}

	return m
}

// Schema returns the documentation schema of the error envelope produced
// by e, with e's code and public message as examples.
func (e *Exception) Schema() *schema.Validator {
	d := e.BuildResponse()[0]

	return EnvelopeSchema(d.Code, d.Message, e.IncludesPath)
}

// EnvelopeSchema returns the documentation schema of an error envelope.
func EnvelopeSchema(code int, message string, withPath bool) *schema.Validator {
	entry := schema.Fields{
		"code":    schema.Integer().Example(code),
		"message": schema.String().Example(message),
	}

	if withPath {
		entry["path"] = schema.Array(schema.String()).Optional()
	}

	return schema.Object(schema.Fields{
		"success": schema.Boolean().Example(false),
		"errors":  schema.Array(schema.Object(entry)),
		"result":  schema.Object(nil),
	})
}
