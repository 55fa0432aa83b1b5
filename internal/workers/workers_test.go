package workers

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCount(t *testing.T) {
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{"CPU-bound", 1.0, 0, 1, availableCPU},
		{"mixed", 1.5, 0, 1, int(float64(availableCPU) * 1.5)},
		{"limited", 4.0, 2, 1, 2},
		{"tiny multiplier still yields one", 0.0001, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit, 0)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want in [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		override int
		limit    int
		want     int
	}{
		{"override", 3, 0, 3},
		{"override capped", 10, 4, 4},
		{"negative ignored", -5, 1, 1},
		{"zero means computed", 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Ignored by Count; the override arrives only as an argument.
			t.Setenv("THUMBNAIL_WORKERS", "7")
			if got := Count(1.0, tt.limit, tt.override); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestForMixed(t *testing.T) {
	if got := ForMixed(1, 0); got != 1 {
		t.Errorf("ForMixed(1, 0) = %d, want 1", got)
	}
	if got := ForMixed(16, 5); got != 5 {
		t.Errorf("ForMixed(16, 5) = %d, want 5", got)
	}
}

func TestLimiterBoundsConcurrency(t *testing.T) {
	var busyMax atomic.Int32
	lim := NewLimiter(2, func(busy int) {
		for {
			cur := busyMax.Load()
			if int32(busy) <= cur || busyMax.CompareAndSwap(cur, int32(busy)) {
				return
			}
		}
	})

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lim.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer lim.Release()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
	if busyMax.Load() > 2 {
		t.Errorf("callback saw %d busy slots, want <= 2", busyMax.Load())
	}
	if lim.Busy() != 0 {
		t.Errorf("Busy() = %d after all released", lim.Busy())
	}
}

func TestLimiterAcquireRespectsContext(t *testing.T) {
	lim := NewLimiter(1, nil)
	if err := lim.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer lim.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := lim.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want deadline exceeded", err)
	}
}

func TestNewLimiterMinimumSize(t *testing.T) {
	if got := NewLimiter(0, nil).Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}
