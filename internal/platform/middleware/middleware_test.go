// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/middleware"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

/*
TestRealIP checks header precedence behind a trusted proxy and that other
peers cannot pick their own address.
*/
func TestRealIP(t *testing.T) {
	trusted, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"xff_client_hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.7", "X-Real-IP": "198.51.100.1"}, "10.0.0.1:1", "203.0.113.1"},
		{"xff_rightmost_untrusted", map[string]string{"X-Forwarded-For": "192.0.2.77, 203.0.113.1"}, "10.0.0.1:1", "203.0.113.1"},
		{"xff_all_trusted", map[string]string{"X-Forwarded-For": "10.0.0.9, 10.0.0.7"}, "127.0.0.1:1", "10.0.0.9"},
		{"real_ip", map[string]string{"X-Real-IP": "198.51.100.1", "CF-Connecting-IP": "192.0.2.1"}, "127.0.0.1:1", "198.51.100.1"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "192.0.2.1"}, "127.0.0.1:1", "192.0.2.1"},
		{"untrusted_peer_ignores_headers", map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "198.51.100.1"}, "192.0.2.9:4000", "192.0.2.9"},
		{"remote_addr", nil, "192.0.2.9:4000", "192.0.2.9"},
		{"unknown", nil, "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, middleware.RealIP(req, trusted))
		})
	}
}

/*
TestClientIP_RotatedForwardedFor checks that a direct client cannot spread
its requests over invented addresses.
*/
func TestClientIP_RotatedForwardedFor(t *testing.T) {
	var seen []string
	handler := middleware.ClientIP(middleware.TrustedProxies{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = append(seen, ctxutil.GetClientIP(r.Context()))
	}))

	for _, forged := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = "192.0.2.50:7000"
		req.Header.Set("X-Forwarded-For", forged)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"192.0.2.50", "192.0.2.50", "192.0.2.50"}, seen)
}

func TestParseTrustedProxies(t *testing.T) {
	trusted, err := middleware.ParseTrustedProxies([]string{" 172.16.0.0/12 ", "::1", ""})
	require.NoError(t, err)

	assert.True(t, trusted.Contains("172.20.1.1"))
	assert.True(t, trusted.Contains("::1"))
	assert.True(t, trusted.Contains("::ffff:172.20.1.1"))
	assert.False(t, trusted.Contains("192.0.2.1"))
	assert.False(t, trusted.Contains("unknown"))

	_, err = middleware.ParseTrustedProxies([]string{"proxy.internal"})
	assert.ErrorContains(t, err, "trusted_proxy_invalid")
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "given", seen)
}

/*
TestStructuredLogger_LogsResolvedUser verifies the identity memo feeds the access log.
*/
func TestStructuredLogger_LogsResolvedUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := middleware.StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := ctxutil.GetIdentitySlot(r.Context())
		slot.Resolve(func() *sec.Identity { return &sec.Identity{ID: "user-42"} })
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Contains(t, buf.String(), `"msg":"http_request_finished"`)
	assert.Contains(t, buf.String(), `"user_id":"user-42"`)
	assert.Contains(t, buf.String(), `"status":204`)
}

func TestThrottle_RefusesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.ClientIP(middleware.TrustedProxies{})(middleware.Throttle(ctx, 1, 2)(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestThrottle_ErrorBody(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.Throttle(ctx, 1, 1)(okHandler)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"TOO_MANY_REQUESTS","error":"Rate limit exceeded"}`, rec.Body.String())
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"INTERNAL_SERVER_ERROR","error":"An unexpected error occurred"}`, rec.Body.String())
}

type corsConfig struct {
	dev    bool
	origin string
}

func (c corsConfig) IsDevelopment() bool    { return c.dev }
func (c corsConfig) AllowedOrigin() string { return c.origin }

func TestCORS(t *testing.T) {
	handler := middleware.CORS(corsConfig{origin: "https://crew.example.org"})(okHandler)

	allowed := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	allowed.Header.Set("Origin", "https://crew.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, allowed)
	assert.Equal(t, "https://crew.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	foreign := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, foreign)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
