package util

import (
	"context"
	"testing"
	"time"
)

func TestIntervalLimiter_ZeroIntervalNeverWaits(t *testing.T) {
	unlimited := NewIntervalLimiter(0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 5; i++ {
		if err := unlimited.Wait(ctx, 1); err != nil {
			t.Fatalf("expected zero interval to never limit, got %v", err)
		}
	}
}

func TestIntervalLimiter_WaitsForInterval(t *testing.T) {
	l := NewIntervalLimiter(time.Hour)
	if err := l.Wait(context.Background(), 1); err != nil {
		t.Fatalf("expected first event to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, 1); err == nil {
		t.Fatal("expected wait to fail before the interval elapses")
	}
}

func TestIntervalLimiter_RefillsAfterInterval(t *testing.T) {
	l := NewIntervalLimiter(20 * time.Millisecond)
	if err := l.Wait(context.Background(), 1); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("expected second event to be delayed, waited %v", elapsed)
	}
}
