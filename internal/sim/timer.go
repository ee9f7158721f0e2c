package sim

import (
	"sync"
	"time"
)

// timerHandle is a cancellable periodic timer. The cancelled flag is guarded
// by the session lock the callback runs under: cancelling while holding the
// lock guarantees the callback never fires again after cancel returns (no
// stray ticks), because the goroutine re-checks the flag under the same lock
// before every invocation.
type timerHandle struct {
	cancelled bool // guarded by the session lock
	done      chan struct{}
}

// startTimer fires fn every period, holding session for the duration of each
// invocation (run-to-completion semantics).
func startTimer(period time.Duration, session *sync.Mutex, fn func()) *timerHandle {
	h := &timerHandle{done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				session.Lock()
				if h.cancelled {
					session.Unlock()
					return
				}
				fn()
				session.Unlock()
			}
		}
	}()

	return h
}

// cancel invalidates the handle. Must be called with the session lock held;
// idempotent.
func (h *timerHandle) cancel() {
	if h == nil || h.cancelled {
		return
	}
	h.cancelled = true
	close(h.done)
}
