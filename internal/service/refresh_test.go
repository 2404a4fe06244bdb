package service

import (
	"testing"
	"time"
)

func TestRefreshToken_Bump(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 0, 0, 0, 123456789, time.UTC)
	var r refreshToken

	first := r.bump(base)
	if !first.Equal(base.Truncate(time.Millisecond)) {
		t.Fatalf("first = %v, want ms-truncated now", first)
	}

	// same instant: one tick later
	second := r.bump(base)
	if second.Sub(first) != time.Millisecond {
		t.Fatalf("second = %v, want first+1ms", second)
	}

	// clock went backwards
	third := r.bump(base.Add(-time.Hour))
	if !third.After(second) {
		t.Fatalf("third = %v not after %v", third, second)
	}

	later := base.Add(time.Minute)
	if got := r.bump(later); !got.Equal(later.Truncate(time.Millisecond)) {
		t.Fatalf("bump(later) = %v", got)
	}
	if !r.current().Equal(later.Truncate(time.Millisecond)) {
		t.Fatalf("current = %v", r.current())
	}
}

func TestLiveness_Boundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := liveness{timeout: DefaultOnlineTimeout}
	if l.online(now) {
		t.Fatalf("never-seen device reported online")
	}
	l.touch(now)
	if !l.online(now.Add(DefaultOnlineTimeout - time.Nanosecond)) {
		t.Fatalf("offline just before timeout")
	}
	if l.online(now.Add(DefaultOnlineTimeout)) {
		t.Fatalf("online at exactly the timeout")
	}
}
