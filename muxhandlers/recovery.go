package muxhandlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/mux"
)

// RecoveryConfig configures RecoveryMiddleware.
type RecoveryConfig struct {
	// Logger receives the recovered panics. Default: slog.Default().
	Logger *slog.Logger

	// Stack adds the goroutine stack to the log record.
	Stack bool
}

// RecoveryMiddleware turns a panic in a downstream handler into a hidden
// 500 error envelope. http.ErrAbortHandler is re-panicked so the server
// aborts the response as intended.
func RecoveryMiddleware(cfg RecoveryConfig) mux.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []any{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
				}
				if id := RequestIDFromContext(r.Context()); id != "" {
					attrs = append(attrs, slog.String("request_id", id))
				}
				if cfg.Stack {
					attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				}

				logger.Error("panic.recovered", attrs...)

				exceptions.Write(w, exceptions.InternalServerError(fmt.Sprint(rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
