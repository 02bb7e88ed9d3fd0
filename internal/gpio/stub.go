//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealSelector is not available on non-Linux platforms.
type RealSelector struct{}

// NewRealSelector returns an error on non-Linux platforms.
func NewRealSelector(chipName string, pinS2, pinS3 int) (*RealSelector, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (s *RealSelector) Set(s2, s3 int) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (s *RealSelector) Close() error { return nil }

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns a source whose Attach always fails.
func NewRealEdgeSource(chipName string, pin int) *RealEdgeSource {
	return &RealEdgeSource{}
}

// Attach is not implemented on non-Linux platforms.
func (e *RealEdgeSource) Attach(fn func()) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (e *RealEdgeSource) Close() error { return nil }

// RealPulseReader is not available on non-Linux platforms.
type RealPulseReader struct{}

// NewRealPulseReader returns an error on non-Linux platforms.
func NewRealPulseReader(chipName string, pin int) (*RealPulseReader, error) {
	return nil, errUnsupported
}

// PulseIn is not implemented on non-Linux platforms.
func (r *RealPulseReader) PulseIn(timeout time.Duration) (time.Duration, error) {
	return 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealPulseReader) Close() error { return nil }
