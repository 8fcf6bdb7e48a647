// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
)

type downStore struct{ calls int }

func (d *downStore) Allow(context.Context, string, redis_rate.Limit) (*redis_rate.Result, error) {
	d.calls++
	return nil, errors.New("dial tcp: connection refused")
}

type recordingStore struct{ keys []string }

func (s *recordingStore) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	s.keys = append(s.keys, key)
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Burst - 1}, nil
}

func testLimiter(store allower) *Limiter {
	return &Limiter{
		store:  store,
		local:  newMemoryBuckets(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func statusOKHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "ip:10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.1:5555", "ip:1.2.3.4"},
		{
			"forwarded for uses last hop",
			map[string]string{"X-Forwarded-For": "9.9.9.9, 5.6.7.8"},
			"10.0.0.1:5555",
			"ip:5.6.7.8",
		},
		{
			"garbage forwarded header ignored",
			map[string]string{"X-Forwarded-For": "not-an-ip"},
			"10.0.0.1:5555",
			"ip:10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/payment", nil)
	req.RemoteAddr = "10.0.0.9:1234"

	if got := Caller(req); got != "ip:10.0.0.9" {
		t.Errorf("anonymous Caller = %q", got)
	}

	ctx := context.WithValue(req.Context(), IdentityKey, &Identity{Email: "A@x.com"})
	if got := Caller(req.WithContext(ctx)); got != "user:a@x.com" {
		t.Errorf("Caller = %q, want user:a@x.com", got)
	}
}

func TestCheckoutRoutesShareBucket(t *testing.T) {
	store := &recordingStore{}
	mw := testLimiter(store).Enforce(Policy{
		Name:    "checkout",
		Limit:   PerWindow(10, 4, time.Minute),
		Subject: Caller,
	})

	for _, path := range []string{"/create-payment-intent", "/payment"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req = req.WithContext(context.WithValue(req.Context(), IdentityKey, &Identity{Email: "a@x.com"}))
		mw(statusOKHandler()).ServeHTTP(httptest.NewRecorder(), req)
	}

	want := "bistro:rl:checkout:user:a@x.com"
	if len(store.keys) != 2 || store.keys[0] != want || store.keys[1] != want {
		t.Errorf("keys = %v, want both %q", store.keys, want)
	}
}

func TestEnforceFallsBackWhenStoreDown(t *testing.T) {
	store := &downStore{}
	mw := testLimiter(store).Enforce(Policy{
		Name:  "checkout",
		Limit: PerWindow(1, 2, time.Minute),
	})
	h := mw(statusOKHandler())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/payment", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 200 429]", codes)
	}
	if store.calls != 3 {
		t.Errorf("store calls = %d, want 3", store.calls)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}
	if last.Header().Get("RateLimit-Remaining") != "0" {
		t.Errorf("RateLimit-Remaining = %q", last.Header().Get("RateLimit-Remaining"))
	}
}

func TestEnforceSkip(t *testing.T) {
	store := &recordingStore{}
	mw := testLimiter(store).Enforce(Policy{
		Name:  "api",
		Limit: PerWindow(1, 1, time.Minute),
		Skip:  func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})

	rec := httptest.NewRecorder()
	mw(statusOKHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || len(store.keys) != 0 {
		t.Errorf("code = %d keys = %v", rec.Code, store.keys)
	}
}

func TestMemoryBucketsRefillAndSweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := newMemoryBuckets()
	m.now = func() time.Time { return now }
	limit := PerWindow(60, 1, time.Minute)

	if res := m.take("k", limit); res.Allowed != 1 {
		t.Fatal("first request rejected")
	}

	res := m.take("k", limit)
	if res.Allowed != 0 {
		t.Fatal("request beyond burst was allowed")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want within one second", res.RetryAfter)
	}

	now = now.Add(time.Second)
	if res := m.take("k", limit); res.Allowed != 1 {
		t.Error("bucket did not refill after one second")
	}

	now = now.Add(bucketIdleTTL + time.Second)
	m.take("other", limit)
	if _, ok := m.buckets["k"]; ok {
		t.Error("idle bucket was not swept")
	}
}
