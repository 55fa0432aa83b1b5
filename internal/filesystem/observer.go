package filesystem

import "sync/atomic"

// Observer records filesystem metrics. The metrics package provides the
// implementation so that filesystem does not import it.
type Observer interface {
	// ObserveOperation records duration and outcome of one logical operation
	// (after retries). op is one of "stat", "open", "readdir", "write".
	ObserveOperation(volume, op string, durationSeconds float64, err error)

	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveStaleError(op, volume string)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver installs the package-level observer. Passing nil disables recording.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

// nopObserver is used until SetObserver is called, which keeps tests free of
// metric side effects.
type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)               {}
func (nopObserver) ObserveRetrySuccess(string, string)               {}
func (nopObserver) ObserveRetryFailure(string, string)               {}
func (nopObserver) ObserveStaleError(string, string)                 {}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil && h.o != nil {
		return h.o
	}
	return nopObserver{}
}
