package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Expected CORS header for allowed origin, got %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("Expected credentials header, got %s", w.Header().Get("Access-Control-Allow-Credentials"))
	}
	headers := w.Header().Get("Access-Control-Allow-Headers")
	if !strings.Contains(headers, "Authorization") {
		t.Errorf("Expected Authorization in allowed headers, got %s", headers)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Expected no CORS header for disallowed origin, got %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSMiddleware_OPTIONSRequest(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for OPTIONS request, got %d", w.Code)
	}
	methods := w.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(methods, "GET") || !strings.Contains(methods, "POST") {
		t.Errorf("Expected methods header to include GET and POST, got %s", methods)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		hsts     bool
		wantHSTS string
	}{
		{name: "hsts disabled", hsts: false, wantHSTS: ""},
		{name: "hsts enabled", hsts: true, wantHSTS: "max-age=31536000; includeSubDomains"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeadersMiddleware(tt.hsts)(okHandler())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			expectedHeaders := map[string]string{
				"X-Content-Type-Options":  "nosniff",
				"X-Frame-Options":         "DENY",
				"X-XSS-Protection":        "1; mode=block",
				"Content-Security-Policy": "default-src 'self'",
			}
			for header, expectedValue := range expectedHeaders {
				if actual := w.Header().Get(header); actual != expectedValue {
					t.Errorf("Expected %s header to be %s, got %s", header, expectedValue, actual)
				}
			}
			if got := w.Header().Get("Strict-Transport-Security"); got != tt.wantHSTS {
				t.Errorf("Expected HSTS %q, got %q", tt.wantHSTS, got)
			}
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(16)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ bookCount authorCount }"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for oversized body, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("Expected GraphQL-shaped error body, got %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for small body, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || w.Header().Get("X-Request-Id") != seen {
		t.Errorf("Expected generated request id to be echoed, got %q / %q", seen, w.Header().Get("X-Request-Id"))
	}

	tests := []struct {
		incoming string
		kept     bool
	}{
		{"abc-123", true},
		{"trace_01.HX", true},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
		{"forged\nlevel=error", false},
		{"has space", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", tt.incoming)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if (seen == tt.incoming) != tt.kept {
			t.Errorf("incoming %q: got request id %q, kept=%v", tt.incoming, seen, tt.kept)
		}
		if w.Header().Get("X-Request-Id") != seen {
			t.Errorf("incoming %q: response header %q differs from %q", tt.incoming, w.Header().Get("X-Request-Id"), seen)
		}
	}
}

func TestRequestIDField(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	logger.Info("without", RequestIDField(context.Background()))
	logger.Info("with", RequestIDField(ContextWithRequestID(context.Background(), "abc-123")))

	if _, ok := logs.FilterMessage("without").All()[0].ContextMap()["request_id"]; ok {
		t.Error("Expected no request_id field without a request id")
	}
	if got := logs.FilterMessage("with").All()[0].ContextMap()["request_id"]; got != "abc-123" {
		t.Errorf("Expected request_id field abc-123, got %v", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimitMiddleware(1, 2)
	handler := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected other clients to be unaffected, got %d", w.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:40000"
	if got := clientKey(req); got != "192.168.1.9" {
		t.Errorf("Expected remote ip, got %s", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.7" {
		t.Errorf("Expected first forwarded hop, got %s", got)
	}
}
