package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/matswap/pkg/api"
)

// RateLimiter ограничивает частоту запросов по ключу (обычно IP) фиксированным окном
type RateLimiter struct {
	buckets  map[string]*bucket
	cleanupC chan struct{}
	now      func() time.Time
	rate     int
	window   time.Duration
	mu       sync.Mutex
	stopOnce sync.Once
}

// bucket состояние лимита для одного ключа
type bucket struct {
	windowStart time.Time
	tokens      int
}

// NewRateLimiter создает rate limiter на rate запросов за window
// и запускает фоновую очистку неактивных ключей.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		cleanupC: make(chan struct{}),
		now:      time.Now,
		rate:     rate,
		window:   window,
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет ключи, не использовавшиеся дольше двух окон
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.cleanupC) })
}

// Allow расходует один запрос для key.
// Если лимит исчерпан, возвращает false и время до начала следующего окна.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, exists := rl.buckets[key]
	if !exists || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now, tokens: rl.rate}
		rl.buckets[key] = b
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}

	return false, b.windowStart.Add(rl.window).Sub(now)
}

// PathRateLimit лимит для путей с заданным префиксом
type PathRateLimit struct {
	Prefix string
	Rate   int
	Window time.Duration
}

// PathRateLimiter выбирает лимит по самому длинному совпавшему префиксу пути
type PathRateLimiter struct {
	logger   *slog.Logger
	fallback *RateLimiter
	limits   []pathLimiter
}

type pathLimiter struct {
	limiter *RateLimiter
	prefix  string
}

// NewPathRateLimiter создает limiter с отдельными лимитами для префиксов
// и лимитом по умолчанию для остальных путей.
func NewPathRateLimiter(limits []PathRateLimit, defaultRate int, defaultWindow time.Duration, logger *slog.Logger) *PathRateLimiter {
	p := &PathRateLimiter{
		logger:   logger,
		fallback: NewRateLimiter(defaultRate, defaultWindow),
	}
	for _, l := range limits {
		p.limits = append(p.limits, pathLimiter{
			prefix:  l.Prefix,
			limiter: NewRateLimiter(l.Rate, l.Window),
		})
	}
	return p
}

func (p *PathRateLimiter) limiterFor(path string) *RateLimiter {
	var (
		best    *RateLimiter
		bestLen int
	)
	for _, l := range p.limits {
		if strings.HasPrefix(path, l.prefix) && len(l.prefix) > bestLen {
			best, bestLen = l.limiter, len(l.prefix)
		}
	}
	if best == nil {
		return p.fallback
	}
	return best
}

// Stop останавливает все limiters
func (p *PathRateLimiter) Stop() {
	p.fallback.Stop()
	for _, l := range p.limits {
		l.limiter.Stop()
	}
}

// Middleware возвращает http middleware
func (p *PathRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)

		allowed, retryAfter := p.limiterFor(r.URL.Path).Allow(key)
		if !allowed {
			p.logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			seconds := int64(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{
				Error:             http.StatusText(http.StatusTooManyRequests),
				Message:           "rate limit exceeded, please try again later",
				RetryAfterSeconds: seconds,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Берем первый IP из списка (реальный клиент)
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
