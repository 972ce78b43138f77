package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
})

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	assigned := rr.Header().Get(requestIDHeader)
	assert.NotEmpty(t, assigned)
	assert.Equal(t, assigned, seen)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(requestIDHeader, "custom-id-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "custom-id-123", rr.Header().Get(requestIDHeader))
	assert.Equal(t, "custom-id-123", seen)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		method  string
		origin  string
		want    string
		code    int
	}{
		{"deny when unconfigured", nil, "GET", "http://localhost:3000", "", http.StatusOK},
		{"wildcard", []string{"*"}, "GET", "http://localhost:3000", "http://localhost:3000", http.StatusOK},
		{"listed origin", []string{"http://allowed.com"}, "GET", "http://allowed.com", "http://allowed.com", http.StatusOK},
		{"unlisted origin", []string{"http://allowed.com"}, "GET", "http://evil.com", "", http.StatusOK},
		{"no origin header", []string{"*"}, "GET", "", "", http.StatusOK},
		{"preflight", nil, "OPTIONS", "http://localhost:3000", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			corsMiddleware(okHandler, tt.allowed).ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.method == "OPTIONS" {
				assert.Empty(t, rr.Body.String())
			}
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), testLog())

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal error")
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	loggingMiddleware(okHandler, testLog()).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestWithMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		want    string
	}{
		{"no origins configured", nil, ""},
		{"origin configured", []string{"http://test.com"}, "http://test.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Origin", "http://test.com")
			rr := httptest.NewRecorder()
			withMiddleware(okHandler, testLog(), tt.allowed).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
