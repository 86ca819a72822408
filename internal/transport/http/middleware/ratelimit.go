package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// limiterTTL — через сколько простоя ведро пользователя удаляется.
const limiterTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// userLimiter — token bucket на ключ (пользователь или IP).
type userLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*bucket
	sweepAt time.Time
}

func newUserLimiter(rps float64, burst int, now func() time.Time) *userLimiter {
	return &userLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     limiterTTL,
		now:     now,
		entries: make(map[string]*bucket),
	}
}

// reserve возвращает (разрешено, через сколько повторить).
func (m *userLimiter) reserve(key string) (bool, time.Duration) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(m.limit, m.burst)}
		m.entries[key] = b
	}
	b.lastSeen = now

	if now.After(m.sweepAt) {
		for k, v := range m.entries {
			if now.Sub(v.lastSeen) > m.ttl {
				delete(m.entries, k)
			}
		}
		m.sweepAt = now.Add(m.ttl)
	}

	if b.lim.AllowN(now, 1) {
		return true, 0
	}

	// Время до появления одного токена.
	wait := time.Duration(float64(time.Second) / float64(m.limit))
	return false, wait
}

// RateLimit ограничивает частоту запросов одного пользователя (после Authenticate)
// или, без пользователя, одного IP. rps <= 0 делает мидлвар no-op.
func RateLimit(rps float64, burst int) Middleware {
	return rateLimit(rps, burst, time.Now)
}

func rateLimit(rps float64, burst int, now func() time.Time) Middleware {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}

		lim := newUserLimiter(rps, burst, now)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserFrom(r.Context())
			if !ok {
				key = "ip:" + clientIP(r)
			}

			allowed, retry := lim.reserve(key)
			if !allowed {
				secs := int(retry.Seconds())
				if retry > time.Duration(secs)*time.Second {
					secs++
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				log.From(r.Context()).Info("rate_limited")
				apierrors.WriteError(w, r, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
