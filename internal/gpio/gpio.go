// Package gpio provides the sensor's hardware boundary with abstraction for testing.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"time"
)

// ErrPulseTimeout is returned by PulseIn when no complete pulse arrives in time.
var ErrPulseTimeout = errors.New("gpio: pulse timeout")

// Selector drives the S2/S3 filter select lines.
type Selector interface {
	// Set writes both line levels (0 or 1).
	Set(s2, s3 int) error

	// Close releases GPIO resources.
	Close() error
}

// EdgeSource delivers rising edges of the sensor output.
type EdgeSource interface {
	// Attach registers fn to be called once per rising edge and starts
	// delivery. fn runs on the event goroutine and must not block.
	Attach(fn func()) error

	// Close releases GPIO resources.
	Close() error
}

// PulseReader measures single HIGH pulses on the sensor output.
type PulseReader interface {
	// PulseIn blocks until a full HIGH pulse has been seen and returns its
	// width, or returns ErrPulseTimeout once timeout has elapsed.
	PulseIn(timeout time.Duration) (time.Duration, error)

	// Close releases GPIO resources.
	Close() error
}

// Timer is a single re-armable one-shot callback.
type Timer interface {
	// Attach sets the callback invoked when the timer fires.
	Attach(fn func())

	// Arm schedules the callback after d, replacing any pending schedule.
	Arm(d time.Duration)

	// Stop cancels any pending schedule. Arm has no effect afterwards.
	Stop()
}

// Pin definitions (BCM numbering)
const (
	DefaultPinOut = 17 // Sensor OUT
	DefaultPinS2  = 27 // Filter select S2
	DefaultPinS3  = 22 // Filter select S3
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"
