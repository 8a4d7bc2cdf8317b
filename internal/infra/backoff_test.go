package infra

import (
	"testing"
	"time"
)

func TestBackoff_Ceiling(t *testing.T) {
	b := NewBackoff()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},  // capped
		{100, 60 * time.Second}, // still capped
	}

	for _, tt := range tests {
		if got := b.Ceiling(tt.attempt); got != tt.want {
			t.Errorf("Ceiling(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_DelayJitterBounds(t *testing.T) {
	b := NewBackoff()

	b.Rand = func() float64 { return 0 }
	if got := b.Delay(3); got != 8*time.Second {
		t.Errorf("Zero draw should give the ceiling, got %s", got)
	}

	b.Rand = func() float64 { return 0.999999 }
	got := b.Delay(3)
	low := time.Duration(float64(8*time.Second) * (1 - b.Jitter))
	if got < low || got > 8*time.Second {
		t.Errorf("Delay(3) = %s, want within [%s, 8s]", got, low)
	}

	b.Rand = func() float64 { return 0.5 }
	if got := b.Delay(100); got != 54*time.Second {
		t.Errorf("Capped delay with half draw = %s, want 54s", got)
	}
}

func TestBackoff_DelaySpreads(t *testing.T) {
	b := NewBackoff()
	seen := make(map[time.Duration]bool)
	for range 50 {
		d := b.Delay(4)
		if d < 12800*time.Millisecond || d > 16*time.Second {
			t.Fatalf("Delay(4) = %s out of [12.8s, 16s]", d)
		}
		seen[d] = true
	}
	if len(seen) < 2 {
		t.Error("Expected jittered delays to differ between calls")
	}
}

func TestBackoff_NoJitter(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, Max: time.Second}
	if got := b.Delay(2); got != 400*time.Millisecond {
		t.Errorf("Delay(2) = %s, want 400ms", got)
	}
	if got := b.Delay(10); got != time.Second {
		t.Errorf("Delay(10) = %s, want 1s", got)
	}
}
