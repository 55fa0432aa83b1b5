package workers

import (
	"context"
	"runtime"
)

// Count returns a worker count for a task type. It respects container CPU
// limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 1.5 for mixed tasks such as thumbnailing
//
// A positive override replaces the computed value. limit caps the result;
// 0 means no cap.
func Count(multiplier float64, limit, override int) int {
	if override > 0 {
		if limit > 0 && override > limit {
			return limit
		}
		return override
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForMixed returns the worker count for tasks that mix I/O and CPU (1.5 per CPU).
func ForMixed(limit, override int) int {
	return Count(1.5, limit, override)
}

// Limiter bounds how many tasks run at once.
type Limiter struct {
	slots chan struct{}
	// onChange, if set, receives the number of busy slots after every change.
	onChange func(busy int)
}

// NewLimiter creates a limiter with n slots (at least one).
func NewLimiter(n int, onChange func(busy int)) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n), onChange: onChange}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.notify()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	<-l.slots
	l.notify()
}

// Size returns the number of slots.
func (l *Limiter) Size() int {
	return cap(l.slots)
}

// Busy returns the number of slots in use.
func (l *Limiter) Busy() int {
	return len(l.slots)
}

func (l *Limiter) notify() {
	if l.onChange != nil {
		l.onChange(len(l.slots))
	}
}
