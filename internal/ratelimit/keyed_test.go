package ratelimit

import (
	"testing"
	"time"
)

func TestKeyed_BurstThenReject(t *testing.T) {
	k := NewKeyed(PerMinute(1), 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !k.Allow("a@example.com") {
			t.Fatalf("expected attempt %d allowed", i+1)
		}
	}
	if k.Allow("a@example.com") {
		t.Error("expected fourth attempt rejected")
	}
	if !k.Allow("b@example.com") {
		t.Error("expected other key unaffected")
	}
}

func TestKeyed_Sweep(t *testing.T) {
	k := NewKeyed(1, 1, 0)
	k.Allow("x")
	k.Allow("y")
	if k.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", k.Len())
	}
	time.Sleep(time.Millisecond)
	k.Sweep()
	if k.Len() != 0 {
		t.Errorf("expected keys swept, got %d", k.Len())
	}
}
