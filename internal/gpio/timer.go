package gpio

import (
	"sync"
	"time"
)

// RealTimer implements Timer on the Go runtime timer.
// The callback runs on its own goroutine, one invocation at a time as long as
// it re-arms only after finishing its work.
type RealTimer struct {
	mu      sync.Mutex
	fn      func()
	t       *time.Timer
	stopped bool
}

// NewRealTimer creates an unarmed timer.
func NewRealTimer() *RealTimer {
	return &RealTimer{}
}

// Attach sets the callback.
func (r *RealTimer) Attach(fn func()) {
	r.mu.Lock()
	r.fn = fn
	r.mu.Unlock()
}

// Arm schedules the callback after d.
func (r *RealTimer) Arm(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	if r.t == nil {
		r.t = time.AfterFunc(d, r.fire)
		return
	}
	r.t.Reset(d)
}

// Stop cancels the pending callback.
func (r *RealTimer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	if r.t != nil {
		r.t.Stop()
	}
}

func (r *RealTimer) fire() {
	r.mu.Lock()
	fn := r.fn
	stopped := r.stopped
	r.mu.Unlock()

	if fn != nil && !stopped {
		fn()
	}
}
