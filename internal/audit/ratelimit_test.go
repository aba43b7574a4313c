package audit

import (
	"testing"
	"time"
)

func TestIngestLimiter_AllowsWithinThreshold(t *testing.T) {
	l := newIngestLimiter(2, time.Minute)
	if !l.Allow("alice") {
		t.Fatal("expected first call allowed")
	}
	if !l.Allow("alice") {
		t.Fatal("expected second call allowed")
	}
	if l.Allow("alice") {
		t.Fatal("expected third call denied")
	}
}

func TestIngestLimiter_DisabledWhenThresholdNonPositive(t *testing.T) {
	l := newIngestLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow("alice") {
			t.Fatal("expected unlimited allow with threshold <= 0")
		}
	}
}

func TestIngestLimiter_SlidesWindow(t *testing.T) {
	l := newIngestLimiter(1, 10*time.Millisecond)
	if !l.Allow("alice") {
		t.Fatal("expected first call allowed")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("alice") {
		t.Fatal("expected call allowed again after window slides")
	}
}

func TestIngestLimiter_PerKey(t *testing.T) {
	l := newIngestLimiter(1, time.Minute)
	if !l.Allow("alice") {
		t.Fatal("expected alice allowed")
	}
	if !l.Allow("bob") {
		t.Fatal("expected bob unaffected by alice's count")
	}
}
