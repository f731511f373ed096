package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	rl, now := newTestLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request allowed, want rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other client rejected, want allowed")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Error("request after window rejected, want allowed")
	}
	if got := rl.GetMetrics(); got.TotalHits != 1 || got.ClientCount != 2 {
		t.Errorf("metrics = %+v, want 1 hit and 2 clients", got)
	}
}

func TestLimiterWindowDoesNotSlide(t *testing.T) {
	rl, now := newTestLimiter(2)
	defer rl.Stop()

	rl.Allow("a")
	*now = now.Add(40 * time.Second)
	rl.Allow("a")
	*now = now.Add(30 * time.Second)

	if !rl.Allow("a") {
		t.Error("steady client locked out after window elapsed")
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl, now := newTestLimiter(5)
	defer rl.Stop()

	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()

	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl, _ := newTestLimiter(1)
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusOK},
		{http.MethodGet, http.StatusOK},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusOK},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/income", nil))
		if rec.Code != tt.want {
			t.Errorf("request %d (%s): status = %d, want %d", i, tt.method, rec.Code, tt.want)
		}
	}
}
