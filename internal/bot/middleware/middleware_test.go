package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("request %d denied", i)
		}
	}
	if rl.Allow(1) {
		t.Fatal("4th request allowed")
	}
	if !rl.Allow(2) {
		t.Fatal("other user denied")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow(1) {
		t.Fatal("request after window denied")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow(1)
	rl.Allow(2)

	now = now.Add(30 * time.Second)
	rl.Allow(2)

	now = now.Add(45 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.requests[1]; ok {
		t.Fatal("idle user not swept")
	}
	if got := len(rl.requests[2]); got != 1 {
		t.Fatalf("user 2 has %d requests, want 1", got)
	}
}

func TestRecoverFromPanic(t *testing.T) {
	func() {
		defer RecoverFromPanic()
		panic("boom")
	}()
}

func TestTruncate(t *testing.T) {
	if got := truncate("short"); got != "short" {
		t.Fatalf("truncate=%q", got)
	}
	long := strings.Repeat("ж", 80)
	got := truncate(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != maxLoggedText+3 {
		t.Fatalf("truncate=%q", got)
	}
}
