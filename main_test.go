package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "bizit/api/v1"
)

func TestRouter_HealthAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(v1.NewHandler(v1.Services{}, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestRouter_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(v1.NewHandler(v1.Services{}, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(v1.NewHandler(v1.Services{}, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/api/store/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}
