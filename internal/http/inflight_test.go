package http

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInFlightTracker_Counting(t *testing.T) {
	tracker := &InFlightTracker{}

	if got := tracker.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0 initially", got)
	}

	tracker.Increment()
	tracker.Increment()
	if got := tracker.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	tracker.Decrement()
	if got := tracker.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestInFlightTracker_WaitForZero_ImmediateWhenEmpty(t *testing.T) {
	tracker := &InFlightTracker{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 10*time.Millisecond); err != nil {
		t.Errorf("WaitForZero() = %v, want nil with no in-flight requests", err)
	}
}

func TestInFlightTracker_WaitForZero_UnblocksOnDrain(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	go func() {
		time.Sleep(30 * time.Millisecond)
		tracker.Decrement()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 5*time.Millisecond); err != nil {
		t.Errorf("WaitForZero() = %v, want nil after drain", err)
	}
}

func TestInFlightTracker_WaitForZero_ContextCancelled(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()
	defer tracker.Decrement()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := tracker.WaitForZero(ctx, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForZero() = %v, want context.DeadlineExceeded", err)
	}
}
