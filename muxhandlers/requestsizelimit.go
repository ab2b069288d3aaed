package muxhandlers

import (
	"errors"
	"net/http"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/mux"
)

// ErrInvalidMaxSize is returned when RequestSizeLimitConfig.MaxBytes is not
// greater than zero.
var ErrInvalidMaxSize = errors.New("request size limit: max size must be greater than zero")

// RequestSizeLimitConfig configures RequestSizeLimitMiddleware.
type RequestSizeLimitConfig struct {
	// MaxBytes is the largest accepted request body. Must be positive.
	MaxBytes int64
}

// RequestSizeLimitMiddleware rejects bodies larger than MaxBytes with a
// 413 error envelope. A declared Content-Length over the limit is rejected
// before the handler runs; otherwise the body is wrapped with
// http.MaxBytesReader and the endpoint reports the overflow when it reads
// the body.
func RequestSizeLimitMiddleware(cfg RequestSizeLimitConfig) (mux.MiddlewareFunc, error) {
	if cfg.MaxBytes <= 0 {
		return nil, ErrInvalidMaxSize
	}

	maxBytes := cfg.MaxBytes

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				exceptions.Write(w, exceptions.PayloadTooLarge(""))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}, nil
}
