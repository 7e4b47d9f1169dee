package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "zero burst blocks everything", rps: 1, burst: 0, calls: 2, wantPass: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst, time.Minute)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("client") {
					passed++
				}
			}
			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1, time.Minute)
	defer rl.Stop()

	if !rl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request for a should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("b has its own bucket")
	}
}

func TestKeyedRateLimiter_RetryAfter(t *testing.T) {
	rl := New(1, 1, time.Minute)
	defer rl.Stop()

	if d := rl.RetryAfter("a"); d != 0 {
		t.Errorf("fresh key should not wait, got %v", d)
	}
	rl.Allow("a")
	if d := rl.RetryAfter("a"); d <= 0 || d > time.Second {
		t.Errorf("RetryAfter() = %v, want (0, 1s]", d)
	}
	if !rl.Allow("b") {
		t.Error("RetryAfter must not consume tokens of other keys")
	}
}

func TestKeyedRateLimiter_Evict(t *testing.T) {
	rl := New(1, 1, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Minute)
	rl.Allow("new")

	if removed := rl.Evict(); removed != 1 {
		t.Errorf("Evict() removed %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}
}

func TestKeyedRateLimiter_Concurrent(t *testing.T) {
	rl := New(1000, 1000, time.Minute)
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.Allow("shared")
		}()
	}
	wg.Wait()

	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1, time.Minute)
	rl.Stop()
	rl.Stop()
}
