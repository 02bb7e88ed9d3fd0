package color

import (
	"errors"
	"fmt"
	"strings"
)

// MaxIntensity is the top of the output range.
const MaxIntensity = 255

// ErrUncalibrated is returned when a channel's bounds have no span.
var ErrUncalibrated = errors.New("color: calibration span is zero")

// Mode selects how raw frequencies outside the calibrated span are handled.
type Mode int

const (
	// Clamped rounds to the nearest integer and clamps to [0, 255].
	Clamped Mode = iota
	// Legacy truncates and wraps to uint8, with no clamp.
	Legacy
)

// ParseMode accepts "clamped" or "legacy".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "clamped":
		return Clamped, nil
	case "legacy":
		return Legacy, nil
	}
	return Clamped, fmt.Errorf("unknown mapping mode %q", s)
}

func (m Mode) String() string {
	if m == Legacy {
		return "legacy"
	}
	return "clamped"
}

// Map converts f using the mode's mapping.
func (m Mode) Map(f, lo, hi int64) (uint8, error) {
	if m == Legacy {
		return MapLegacy(f, lo, hi)
	}
	return Map(f, lo, hi)
}

// Map linearly maps f from [lo, hi] onto [0, 255].
// Ties round away from zero, so f=500 on [0, 1000] yields 128.
// Values outside the span are clamped.
func Map(f, lo, hi int64) (uint8, error) {
	span := hi - lo
	if span == 0 {
		return 0, ErrUncalibrated
	}
	num := (f - lo) * MaxIntensity
	if span < 0 {
		num, span = -num, -span
	}
	if num <= 0 {
		return 0, nil
	}
	v := (2*num + span) / (2 * span)
	if v > MaxIntensity {
		v = MaxIntensity
	}
	return uint8(v), nil
}

// MapLegacy reproduces map(f, lo, hi, 0, 255) cast to an unsigned char:
// truncating division, no clamp, wrap on overflow.
func MapLegacy(f, lo, hi int64) (uint8, error) {
	if hi == lo {
		return 0, ErrUncalibrated
	}
	return uint8((f - lo) * MaxIntensity / (hi - lo)), nil
}

// Hex formats rgb as #rrggbb.
func Hex(rgb [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
