// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

const rateLimitKeyPrefix = "bistro:rl"

// Policy is one named bucket family. Requests whose Subject matches share
// a bucket; different policies never share buckets.
type Policy struct {
	Name    string
	Limit   redis_rate.Limit
	Subject func(*http.Request) string
	Skip    func(*http.Request) bool
}

type allower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// Limiter enforces policies against redis (GCRA via redis_rate). While
// redis is unreachable each instance falls back to in-process buckets, so
// limits then apply per replica instead of globally.
type Limiter struct {
	store  allower
	local  *memoryBuckets
	logger *slog.Logger
}

func NewLimiter(rdb *redis.Client, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:  redis_rate.NewLimiter(rdb),
		local:  newMemoryBuckets(),
		logger: logger,
	}
}

func (l *Limiter) Enforce(p Policy) func(http.Handler) http.Handler {
	if p.Subject == nil {
		p.Subject = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.Skip != nil && p.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := policyKey(p.Name, p.Subject(r))
			res := l.take(r.Context(), key, p.Limit)

			writeLimitHeaders(w, p.Limit, res)
			if res.Allowed == 0 {
				writeLimited(w, p.Name, res.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) take(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) *redis_rate.Result {
	res, err := l.store.Allow(ctx, key, limit)
	if err == nil {
		return res
	}

	l.logger.Warn("rate limit store unavailable, using local buckets",
		"key", key,
		"error", err,
	)
	return l.local.take(key, limit)
}

func policyKey(policy, subject string) string {
	return rateLimitKeyPrefix + ":" + policy + ":" + subject
}

// ClientIP identifies anonymous traffic. Only the hop appended by our own
// proxy is trusted from X-Forwarded-For; values that are not IPs are
// ignored.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(hops[len(hops)-1])); ip != nil {
			return "ip:" + ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return "ip:" + ip.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Caller keys by the verified email and must run after RequireToken.
// Unauthenticated requests fall back to ClientIP.
func Caller(r *http.Request) string {
	if email := GetUserEmail(r.Context()); email != "" {
		return "user:" + strings.ToLower(email)
	}
	return ClientIP(r)
}

// PerWindow allows rate requests per window with bursts up to burst.
func PerWindow(rate, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	if burst < 1 {
		burst = 1
	}
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: window}
}

func writeLimitHeaders(w http.ResponseWriter, limit redis_rate.Limit, res *redis_rate.Result) {
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	h.Set("RateLimit-Reset", strconv.Itoa(ceilSeconds(res.ResetAfter)))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func writeLimited(w http.ResponseWriter, policy string, retryAfter time.Duration) {
	secs := max(ceilSeconds(retryAfter), 1)

	w.Header().Set("Retry-After", strconv.Itoa(secs))
	core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
		Error:   true,
		Code:    "RATE_LIMITED",
		Message: fmt.Sprintf("too many %s requests, retry in %ds", policy, secs),
	})
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// memoryBuckets is the degraded-mode store. Idle buckets are swept
// lazily on access instead of by a background goroutine.
type memoryBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newMemoryBuckets() *memoryBuckets {
	return &memoryBuckets{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *memoryBuckets) take(key string, limit redis_rate.Limit) *redis_rate.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	perSec := float64(limit.Rate) / limit.Period.Seconds()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		m.buckets[key] = b
	}
	b.seen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}

	reservation := b.lim.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = 1
	}

	tokens := b.lim.TokensAt(now)
	res.Remaining = int(math.Max(tokens, 0))
	if perSec > 0 {
		missing := float64(limit.Burst) - tokens
		res.ResetAfter = time.Duration(missing / perSec * float64(time.Second))
	}

	return res
}

func (m *memoryBuckets) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < bucketIdleTTL {
		return
	}
	m.lastSweep = now

	for key, b := range m.buckets {
		if now.Sub(b.seen) > bucketIdleTTL {
			delete(m.buckets, key)
		}
	}
}
