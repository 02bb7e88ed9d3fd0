// Package poller implements the polling estimator: for one filter at a time it
// measures HIGH pulse widths on the sensor output with a blocking capture and
// averages the derived frequencies.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/filter"
	"github.com/sweeney/color-sensor/internal/gpio"
)

const (
	// DefaultSamples is the sample count per accessor call.
	DefaultSamples = 32
	// DefaultCalibrationSamples is the sample count per calibration channel.
	DefaultCalibrationSamples = 255
	// DefaultTimeout bounds a single pulse capture.
	DefaultTimeout = 250 * time.Millisecond
	// DefaultHigh is the white bound used before calibration.
	DefaultHigh = 1000
)

// halfPeriodHz converts a HIGH width in microseconds into frequency: the
// output is a 50% duty square wave, so f = 1e6 / (2 * width).
const halfPeriodHz = 500000

// ErrNoSamples is returned when a measurement is asked for zero samples.
var ErrNoSamples = errors.New("poller: sample count must be positive")

// Config controls the estimator. Zero fields take the defaults.
type Config struct {
	Samples            int
	CalibrationSamples int
	Timeout            time.Duration
	Mode               color.Mode
}

// Sensor is one physical sensor read on demand.
// Not safe for concurrent use; every call blocks for up to
// samples * Timeout.
type Sensor struct {
	cfg    Config
	filter *filter.Controller
	pulses gpio.PulseReader

	cal      color.Calibration
	last     [3]int64
	timeouts int
}

// New creates a Sensor with bounds [0, 1000] on every channel.
func New(sel *filter.Controller, pulses gpio.PulseReader, cfg Config) *Sensor {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.CalibrationSamples <= 0 {
		cfg.CalibrationSamples = DefaultCalibrationSamples
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Sensor{cfg: cfg, filter: sel, pulses: pulses}
	for i := range s.cal {
		s.cal[i] = color.Bounds{Low: 0, High: DefaultHigh}
	}
	return s
}

// Frequency averages samples instantaneous frequencies from the current
// filter, truncating the mean. A capture that times out counts as 0 Hz.
func (s *Sensor) Frequency(samples int) (int64, error) {
	if samples <= 0 {
		return 0, ErrNoSamples
	}

	var sum int64
	for i := 0; i < samples; i++ {
		w, err := s.pulses.PulseIn(s.cfg.Timeout)
		if errors.Is(err, gpio.ErrPulseTimeout) {
			s.timeouts++
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("pulse capture: %w", err)
		}
		us := w.Microseconds()
		if us < 1 {
			us = 1
		}
		sum += halfPeriodHz / us
	}
	return sum / int64(samples), nil
}

// measure selects the channel's filter and takes a frequency.
func (s *Sensor) measure(c color.Channel, samples int) (int64, error) {
	if err := s.filter.Select(c.Filter()); err != nil {
		return 0, err
	}
	f, err := s.Frequency(samples)
	if err != nil {
		return 0, fmt.Errorf("%s channel: %w", c, err)
	}
	return f, nil
}

// AdjustWhiteBalance records each channel's current frequency as its high bound.
func (s *Sensor) AdjustWhiteBalance(ctx context.Context) error {
	return s.calibrate(ctx, "white", func(b *color.Bounds, f int64) { b.High = f })
}

// AdjustBlackBalance records each channel's current frequency as its low bound.
func (s *Sensor) AdjustBlackBalance(ctx context.Context) error {
	return s.calibrate(ctx, "black", func(b *color.Bounds, f int64) { b.Low = f })
}

func (s *Sensor) calibrate(ctx context.Context, name string, set func(*color.Bounds, int64)) error {
	cal := s.cal
	for _, c := range color.Channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := s.measure(c, s.cfg.CalibrationSamples)
		if err != nil {
			return fmt.Errorf("%s balance: %w", name, err)
		}
		set(&cal[c], f)
	}
	s.cal = cal
	log.Printf("poller: %s balance %v", name, s.cal)
	return nil
}

func (s *Sensor) channel(c color.Channel) (uint8, error) {
	f, err := s.measure(c, s.cfg.Samples)
	if err != nil {
		return 0, err
	}
	s.last[c] = f
	b := s.cal[c]
	v, err := s.cfg.Mode.Map(f, b.Low, b.High)
	if err != nil {
		return 0, fmt.Errorf("%s channel: %w", c, err)
	}
	return v, nil
}

// Red measures and returns the red intensity.
func (s *Sensor) Red() (uint8, error) { return s.channel(color.Red) }

// Green measures and returns the green intensity.
func (s *Sensor) Green() (uint8, error) { return s.channel(color.Green) }

// Blue measures and returns the blue intensity.
func (s *Sensor) Blue() (uint8, error) { return s.channel(color.Blue) }

// FillRGB measures all three channels in R,G,B order.
func (s *Sensor) FillRGB(buf *[3]uint8) error {
	for _, c := range color.Channels {
		v, err := s.channel(c)
		if err != nil {
			return err
		}
		buf[c] = v
	}
	return nil
}

// Frequencies returns the last measured frequency per channel.
func (s *Sensor) Frequencies() [3]int64 {
	return s.last
}

// Calibration returns the bounds in use.
func (s *Sensor) Calibration() color.Calibration {
	return s.cal
}

// SetCalibration replaces the bounds in memory.
func (s *Sensor) SetCalibration(c color.Calibration) {
	s.cal = c
}

// Timeouts returns how many captures have timed out.
func (s *Sensor) Timeouts() int {
	return s.timeouts
}

// Close releases the output pin.
func (s *Sensor) Close() error {
	return s.pulses.Close()
}
