package muxhandlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/mux"
)

func TestRequestSizeLimitMiddleware(t *testing.T) {
	t.Run("config validation", func(t *testing.T) {
		tests := []struct {
			name   string
			config RequestSizeLimitConfig
		}{
			{"zero max bytes", RequestSizeLimitConfig{MaxBytes: 0}},
			{"negative max bytes", RequestSizeLimitConfig{MaxBytes: -1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := RequestSizeLimitMiddleware(tt.config)
				assert.ErrorIs(t, err, ErrInvalidMaxSize)
			})
		}

		_, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: 1024})
		assert.NoError(t, err)
	})

	mw, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: 10})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(mw)
	r.HandleFunc("/upload", func(w http.ResponseWriter, req *http.Request) {
		if _, err := io.ReadAll(req.Body); err != nil {
			exceptions.Write(w, exceptions.PayloadTooLarge(""))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name          string
		body          string
		contentLength int64
		wantCode      int
	}{
		{"within limit", "small", 5, http.StatusNoContent},
		{"exactly at limit", "0123456789", 10, http.StatusNoContent},
		{"declared length over limit", "this body is too large", 22, http.StatusRequestEntityTooLarge},
		{"unknown length over limit", "this body is too large", -1, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)

			if tt.wantCode != http.StatusRequestEntityTooLarge {
				return
			}

			var env exceptions.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			require.Len(t, env.Errors, 1)
			assert.Equal(t, exceptions.CodePayloadTooLarge, env.Errors[0].Code)
			assert.Equal(t, "Payload Too Large", env.Errors[0].Message)
		})
	}
}
