package gpio

import (
	"errors"
	"sync"
	"time"
)

// FakeSelector records select line writes for test assertions.
type FakeSelector struct {
	// Writes contains every (s2, s3) pair written, in order.
	Writes [][2]int

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSelector creates a FakeSelector.
func NewFakeSelector() *FakeSelector {
	return &FakeSelector{}
}

// Set records the levels.
func (f *FakeSelector) Set(s2, s3 int) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, [2]int{s2, s3})
	return nil
}

// Last returns the most recent write.
func (f *FakeSelector) Last() (s2, s3 int, ok bool) {
	if len(f.Writes) == 0 {
		return 0, 0, false
	}
	w := f.Writes[len(f.Writes)-1]
	return w[0], w[1], true
}

// Close marks the selector as closed.
func (f *FakeSelector) Close() error {
	f.Closed = true
	return nil
}

// FakeEdgeSource lets tests inject rising edges.
type FakeEdgeSource struct {
	mu sync.Mutex
	fn func()

	// AttachError, if set, will be returned by Attach.
	AttachError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeEdgeSource creates a FakeEdgeSource.
func NewFakeEdgeSource() *FakeEdgeSource {
	return &FakeEdgeSource{}
}

// Attach stores the edge handler.
func (f *FakeEdgeSource) Attach(fn func()) error {
	if f.AttachError != nil {
		return f.AttachError
	}
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return nil
}

// Pulse delivers n rising edges. Edges after Close are dropped.
func (f *FakeEdgeSource) Pulse(n int) {
	f.mu.Lock()
	fn := f.fn
	closed := f.Closed
	f.mu.Unlock()

	if fn == nil || closed {
		return
	}
	for i := 0; i < n; i++ {
		fn()
	}
}

// Close marks the source as closed.
func (f *FakeEdgeSource) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// FakePulseReader is a test double that returns scripted pulse widths.
type FakePulseReader struct {
	// Widths contains scripted pulse widths to return.
	// Each call to PulseIn() consumes the next width. A zero width is
	// reported as ErrPulseTimeout.
	Widths []time.Duration

	// index tracks current position in Widths
	index int

	// Calls counts PulseIn invocations.
	Calls int

	// Timeouts records the timeout passed to each call.
	Timeouts []time.Duration

	// ReadError, if set, will be returned by PulseIn().
	ReadError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakePulseReader creates a FakePulseReader with the given widths.
func NewFakePulseReader(widths ...time.Duration) *FakePulseReader {
	return &FakePulseReader{Widths: widths}
}

// PulseIn returns the next scripted width.
// If widths are exhausted, returns the last width repeatedly.
func (f *FakePulseReader) PulseIn(timeout time.Duration) (time.Duration, error) {
	f.Calls++
	f.Timeouts = append(f.Timeouts, timeout)

	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Widths) == 0 {
		return 0, errors.New("no widths configured")
	}

	w := f.Widths[f.index]
	if f.index < len(f.Widths)-1 {
		f.index++
	}

	if w == 0 {
		return 0, ErrPulseTimeout
	}
	return w, nil
}

// Script replaces the scripted widths and rewinds.
func (f *FakePulseReader) Script(widths ...time.Duration) {
	f.Widths = widths
	f.index = 0
}

// Close marks the reader as closed.
func (f *FakePulseReader) Close() error {
	f.Closed = true
	return nil
}

// FakeTimer fires only when the test calls Fire.
type FakeTimer struct {
	fn func()

	// Armed holds every period passed to Arm, in order.
	Armed []time.Duration

	// Stopped tracks if Stop was called
	Stopped bool
}

// NewFakeTimer creates a FakeTimer.
func NewFakeTimer() *FakeTimer {
	return &FakeTimer{}
}

// Attach stores the callback.
func (f *FakeTimer) Attach(fn func()) {
	f.fn = fn
}

// Arm records the requested period.
func (f *FakeTimer) Arm(d time.Duration) {
	if f.Stopped {
		return
	}
	f.Armed = append(f.Armed, d)
}

// Stop marks the timer as stopped.
func (f *FakeTimer) Stop() {
	f.Stopped = true
}

// Fire invokes the callback n times, as if n periods had elapsed.
func (f *FakeTimer) Fire(n int) {
	for i := 0; i < n; i++ {
		if f.fn == nil || f.Stopped {
			return
		}
		f.fn()
	}
}
