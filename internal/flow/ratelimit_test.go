package flow

import (
	"testing"
	"time"
)

func TestRateLimiter_FirstAcquireAllowed(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	wait, ok := rl.TryAcquire("u1")
	if !ok || wait != 0 {
		t.Errorf("TryAcquire = %v, %v; want 0, true", wait, ok)
	}
}

func TestRateLimiter_DeniedWithinCooldown(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	current := time.Now()
	rl.now = func() time.Time { return current }

	rl.TryAcquire("u1")

	current = current.Add(20 * time.Second)
	wait, ok := rl.TryAcquire("u1")
	if ok {
		t.Fatal("second acquire within cooldown should be denied")
	}
	if wait != 40*time.Second {
		t.Errorf("remaining wait = %v, want 40s", wait)
	}

	// Denial must not reset the window.
	current = current.Add(10 * time.Second)
	wait, ok = rl.TryAcquire("u1")
	if ok || wait != 30*time.Second {
		t.Errorf("after denial: wait = %v, ok = %v; want 30s, false", wait, ok)
	}
}

func TestRateLimiter_AllowedAfterCooldown(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	current := time.Now()
	rl.now = func() time.Time { return current }

	rl.TryAcquire("u1")
	current = current.Add(61 * time.Second)
	if _, ok := rl.TryAcquire("u1"); !ok {
		t.Error("acquire after cooldown should be allowed")
	}
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	rl.TryAcquire("u1")
	if _, ok := rl.TryAcquire("u2"); !ok {
		t.Error("u1's cooldown must not affect u2")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	current := time.Now()
	rl.now = func() time.Time { return current }

	rl.TryAcquire("old")
	current = current.Add(3 * time.Minute)
	rl.TryAcquire("recent")
	rl.Cleanup()

	if _, ok := rl.last["old"]; ok {
		t.Error("old entry should be cleaned up")
	}
	if _, ok := rl.last["recent"]; !ok {
		t.Error("recent entry should survive cleanup")
	}
}
