package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	assert.Equal(t, 10, limiter.rate)
	assert.Equal(t, time.Minute, limiter.window)
	assert.NotNil(t, limiter.buckets)

	// повторная остановка не паникует
	limiter.Stop()
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("Requests over limit are denied", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow("192.168.1.2")
			assert.True(t, allowed, fmt.Sprintf("request %d should be allowed", i+1))
		}

		allowed, retryAfter := limiter.Allow("192.168.1.2")
		assert.False(t, allowed, "request over limit should be denied")
		assert.Greater(t, retryAfter, time.Duration(0))
		assert.LessOrEqual(t, retryAfter, time.Minute)
	})

	t.Run("Different keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()

		allowed, _ := limiter.Allow("a")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("a")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow("b")
		assert.True(t, allowed)
	})

	t.Run("Tokens refill after window expires", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()

		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }

		allowed, _ := limiter.Allow("k")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("k")
		assert.True(t, allowed)

		now = now.Add(20 * time.Second)
		allowed, retryAfter := limiter.Allow("k")
		assert.False(t, allowed)
		assert.Equal(t, 40*time.Second, retryAfter)

		now = now.Add(40 * time.Second)
		allowed, _ = limiter.Allow("k")
		assert.True(t, allowed, "tokens should be refilled")
	})
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("192.168.1.1")
	limiter.Allow("192.168.1.2")
	now = now.Add(90 * time.Second)
	limiter.Allow("192.168.1.3")

	now = now.Add(60 * time.Second)
	limiter.cleanupOldBuckets()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "192.168.1.3")
}

func TestPathRateLimiter(t *testing.T) {
	limits := []PathRateLimit{
		{Prefix: "/api/v1/auth/", Rate: 3, Window: time.Minute},
		{Prefix: "/api/v1/auth/login", Rate: 2, Window: time.Minute},
	}

	p := NewPathRateLimiter(limits, 10, time.Minute, discardLogger())
	defer p.Stop()

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method, path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("Longest prefix wins", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/v1/auth/login", "10.0.0.1").Code)
		}

		w := do(http.MethodPost, "/api/v1/auth/login", "10.0.0.1")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("Shorter prefix has its own budget", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/auth/status", "10.0.0.1").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, do(http.MethodGet, "/api/v1/auth/status", "10.0.0.1").Code)
	})

	t.Run("Other paths use default limit", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/catalog/STYLE-001", "10.0.0.2").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, do(http.MethodGet, "/api/v1/catalog/STYLE-001", "10.0.0.2").Code)
	})

	t.Run("Ports of the same client share a budget", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestPathRateLimiter_LogsExceededRequests(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	p := NewPathRateLimiter(nil, 1, time.Minute, logger)
	defer p.Stop()

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/swap", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "Rate limit exceeded")
	assert.Contains(t, logOutput, "ip=192.168.1.1")
	assert.Contains(t, logOutput, "/api/v1/swap")
	assert.Contains(t, logOutput, "POST")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		expectedIP string
	}{
		{name: "X-Forwarded-For with single IP", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1", expectedIP: "192.168.1.1"},
		{name: "X-Forwarded-For with multiple IPs", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1, 10.0.0.2", expectedIP: "192.168.1.1"},
		{name: "X-Real-IP when X-Forwarded-For is empty", remoteAddr: "10.0.0.1:12345", xRealIP: "192.168.2.1", expectedIP: "192.168.2.1"},
		{name: "RemoteAddr without port", remoteAddr: "192.168.3.1:54321", expectedIP: "192.168.3.1"},
		{name: "IPv6 RemoteAddr", remoteAddr: "[::1]:54321", expectedIP: "::1"},
		{name: "RemoteAddr without port stays as is", remoteAddr: "pipe", expectedIP: "pipe"},
		{name: "X-Forwarded-For takes precedence over X-Real-IP", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1", xRealIP: "192.168.2.1", expectedIP: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expectedIP, getClientIP(req))
		})
	}
}
