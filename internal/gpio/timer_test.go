package gpio

import (
	"testing"
	"time"
)

func TestRealTimerFiresAndRearms(t *testing.T) {
	r := NewRealTimer()
	fired := make(chan struct{}, 4)
	n := 0
	r.Attach(func() {
		fired <- struct{}{}
		n++
		if n < 3 {
			r.Arm(time.Millisecond)
		}
	})
	defer r.Stop()

	r.Arm(time.Millisecond)

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatalf("timer did not fire (fire %d)", i)
		}
	}
}

func TestRealTimerStop(t *testing.T) {
	r := NewRealTimer()
	fired := make(chan struct{}, 1)
	r.Attach(func() { fired <- struct{}{} })

	r.Arm(50 * time.Millisecond)
	r.Stop()
	r.Arm(time.Millisecond)

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(200 * time.Millisecond):
	}
}
