package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *clock) {
	t.Helper()
	rl := NewLimiter(cfg)
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestAllowWindow(t *testing.T) {
	rl, c := newTestLimiter(t, Config{RequestsPerMinute: 2})

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request in the window must be denied")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients are counted separately")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("a new window must reset the count")
	}
	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, c := newTestLimiter(t, Config{RequestsPerMinute: 5})
	rl.Allow("old")
	c.t = c.t.Add(11 * time.Minute)
	rl.Allow("new")

	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 1 {
		t.Fatalf("expected only the recent client, got %d", n)
	}
}

func TestMiddleware(t *testing.T) {
	rl, c := newTestLimiter(t, Config{RequestsPerMinute: 1, WritesOnly: true})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(ok)

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/v1/transactions", nil))
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first write = %d", rec.Code)
	}
	c.t = c.t.Add(20 * time.Second)
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second write = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q", got)
	}
	for i := 0; i < 3; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
			t.Fatalf("reads are not limited, got %d", rec.Code)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
