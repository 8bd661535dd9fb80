package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		burst     float64
		wantErr   bool
		wantBurst float64
	}{
		{"valid", 5, 10, false, 10},
		{"burst raised to one", 5, 0, false, 1},
		{"zero rate", 0, 10, true, 0},
		{"negative rate", -1, 10, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := NewRateLimiter(tt.rate, tt.burst, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := rl.available(); got < tt.wantBurst-0.01 || got > tt.wantBurst+0.01 {
				t.Errorf("initial tokens = %.2f, want %.2f", got, tt.wantBurst)
			}
		})
	}
}

func TestTryAcquireConsumesBurst(t *testing.T) {
	rl, _ := NewRateLimiter(1, 5, nil)

	for i := 0; i < 5; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("tryAcquire failed on attempt %d", i+1)
		}
	}
	if rl.tryAcquire() {
		t.Error("tryAcquire should fail when the bucket is empty")
	}
}

func TestTokensCapAtBurst(t *testing.T) {
	rl, _ := NewRateLimiter(100, 5, nil)
	time.Sleep(100 * time.Millisecond)

	if got := rl.available(); got > 5.01 {
		t.Errorf("tokens = %.2f, should cap at 5", got)
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	rl, _ := NewRateLimiter(10, 1, nil)
	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Wait returned after %v, expected ~100ms", elapsed)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	rl, _ := NewRateLimiter(0.1, 1, nil)
	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want deadline exceeded", err)
	}
}

func TestWaitConcurrent(t *testing.T) {
	rl, _ := NewRateLimiter(50, 5, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(ctx); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != 20 {
		t.Errorf("admitted %d of 20 waiters", admitted)
	}
}
