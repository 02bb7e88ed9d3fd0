//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// eventBufferSize bounds the edge events queued between PulseIn calls.
const eventBufferSize = 64

// RealSelector drives S2/S3 on actual hardware using Linux GPIO character device.
type RealSelector struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealSelector requests the S2 and S3 lines as outputs, both low (RED).
func NewRealSelector(chipName string, pinS2, pinS3 int) (*RealSelector, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines([]int{pinS2, pinS3}, gpiocdev.AsOutput(0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request select pins %d,%d: %w", pinS2, pinS3, err)
	}

	return &RealSelector{chip: chip, lines: lines}, nil
}

// Set writes the S2 and S3 levels.
func (s *RealSelector) Set(s2, s3 int) error {
	if err := s.lines.SetValues([]int{s2, s3}); err != nil {
		return fmt.Errorf("set select pins: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the lines to input with pull-down (matching Pi boot defaults)
// before closing so the sensor is not left driven across a reboot.
func (s *RealSelector) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure select pins: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close select pins: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RealEdgeSource delivers rising edges of the sensor OUT pin.
type RealEdgeSource struct {
	chip string
	pin  int
	line *gpiocdev.Line
}

// NewRealEdgeSource prepares an edge source. The line is requested by Attach.
func NewRealEdgeSource(chipName string, pin int) *RealEdgeSource {
	return &RealEdgeSource{chip: chipName, pin: pin}
}

// Attach requests the OUT line with rising edge detection and calls fn per edge.
func (e *RealEdgeSource) Attach(fn func()) error {
	if e.line != nil {
		return fmt.Errorf("out pin %d: already attached", e.pin)
	}
	line, err := gpiocdev.RequestLine(e.chip, e.pin,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { fn() }))
	if err != nil {
		return fmt.Errorf("request out pin %d: %w", e.pin, err)
	}
	e.line = line
	return nil
}

// Close stops edge delivery and releases the line.
func (e *RealEdgeSource) Close() error {
	if e.line == nil {
		return nil
	}
	err := e.line.Close()
	e.line = nil
	if err != nil {
		return fmt.Errorf("close out pin: %w", err)
	}
	return nil
}

// RealPulseReader measures HIGH pulses on the sensor OUT pin from kernel
// edge timestamps.
type RealPulseReader struct {
	line   *gpiocdev.Line
	events chan gpiocdev.LineEvent
}

// NewRealPulseReader requests the OUT line with detection on both edges.
func NewRealPulseReader(chipName string, pin int) (*RealPulseReader, error) {
	r := &RealPulseReader{events: make(chan gpiocdev.LineEvent, eventBufferSize)}

	line, err := gpiocdev.RequestLine(chipName, pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request out pin %d: %w", pin, err)
	}
	r.line = line
	return r, nil
}

func (r *RealPulseReader) handleEvent(evt gpiocdev.LineEvent) {
	select {
	case r.events <- evt:
	default:
		// Nobody is measuring; drop.
	}
}

// PulseIn waits for a rising edge followed by a falling edge and returns the
// time between them.
func (r *RealPulseReader) PulseIn(timeout time.Duration) (time.Duration, error) {
	r.drain()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var rise time.Duration
	rising := false
	for {
		select {
		case evt := <-r.events:
			switch evt.Type {
			case gpiocdev.LineEventRisingEdge:
				rise = evt.Timestamp
				rising = true
			case gpiocdev.LineEventFallingEdge:
				if rising {
					return evt.Timestamp - rise, nil
				}
			}
		case <-deadline.C:
			return 0, ErrPulseTimeout
		}
	}
}

// drain discards events queued before the measurement started.
func (r *RealPulseReader) drain() {
	for {
		select {
		case <-r.events:
		default:
			return
		}
	}
}

// Close releases the line.
func (r *RealPulseReader) Close() error {
	if r.line == nil {
		return nil
	}
	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close out pin: %w", err)
	}
	return nil
}
