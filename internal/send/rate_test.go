package send

import (
	"context"
	"testing"
	"time"
)

func TestRateRegulator_UnlimitedDoesNotBlock(t *testing.T) {
	r := NewRateRegulator(0)
	done := make(chan struct{})
	go func() {
		_ = r.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Wait with target=0 should return immediately")
	}
}

func TestRateRegulator_AdjustPercent(t *testing.T) {
	r := NewRateRegulator(1000)
	r.AdjustPercent(0.05)
	if got := r.Target(); got != 1050 {
		t.Fatalf("Target after +5%% = %d, want 1050", got)
	}
	r.AdjustPercent(-0.05)
	if got := r.Target(); got >= 1050 {
		t.Fatalf("Target after -5%% = %d, want < 1050", got)
	}
}

func TestRateRegulator_AdjustPercentLeavesUnlimitedAlone(t *testing.T) {
	r := NewRateRegulator(0)
	r.AdjustPercent(0.05)
	if got := r.Target(); got != 0 {
		t.Fatalf("Target = %d, want 0 (unlimited must stay unlimited)", got)
	}
}

func TestRateRegulator_FastRegimeCompletes(t *testing.T) {
	r := NewRateRegulator(5000) // above fastRegimeThreshold
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			_ = r.Wait(context.Background())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("fast-regime Wait loop did not complete")
	}
}

func TestRateRegulator_SlowRegimeRespectsContextCancel(t *testing.T) {
	r := NewRateRegulator(1) // 1 pps: second Wait call should block
	ctx := context.Background()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Wait(cancelCtx); err == nil {
		t.Fatalf("expected second Wait to be cancelled by context deadline at 1pps")
	}
}

func TestRateRegulator_SetTargetClampsNegative(t *testing.T) {
	r := NewRateRegulator(100)
	r.SetTarget(-5)
	if got := r.Target(); got != 0 {
		t.Fatalf("SetTarget(-5) = %d, want 0", got)
	}
}
