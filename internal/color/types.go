// Package color contains the pure sensor domain: filters, channels, calibration
// bounds and the frequency-to-intensity mapping.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package color

import (
	"context"
	"fmt"
	"time"
)

// Filter selects which photodiode band the sensor reports frequency for.
type Filter int32

const (
	FilterRed Filter = iota
	FilterGreen
	FilterBlue
	FilterClear
)

// Levels returns the S2/S3 line levels for the filter.
//
//	S2  S3  PHOTODIODE
//	L   L   Red
//	L   H   Blue
//	H   L   Clear (no filter)
//	H   H   Green
func (f Filter) Levels() (s2, s3 int) {
	if f == FilterClear || f == FilterGreen {
		s2 = 1
	}
	if f == FilterBlue || f == FilterGreen {
		s3 = 1
	}
	return s2, s3
}

// Channel returns the RGB channel measured through f.
// CLEAR has no channel.
func (f Filter) Channel() (Channel, bool) {
	switch f {
	case FilterRed:
		return Red, true
	case FilterGreen:
		return Green, true
	case FilterBlue:
		return Blue, true
	}
	return 0, false
}

func (f Filter) String() string {
	switch f {
	case FilterRed:
		return "RED"
	case FilterGreen:
		return "GREEN"
	case FilterBlue:
		return "BLUE"
	case FilterClear:
		return "CLEAR"
	}
	return fmt.Sprintf("Filter(%d)", int32(f))
}

// Channel indexes the three colour channels in R,G,B order.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists every channel in R,G,B order.
var Channels = [3]Channel{Red, Green, Blue}

// Filter returns the filter that measures c.
func (c Channel) Filter() Filter {
	switch c {
	case Green:
		return FilterGreen
	case Blue:
		return FilterBlue
	}
	return FilterRed
}

func (c Channel) String() string {
	switch c {
	case Red:
		return "r"
	case Green:
		return "g"
	case Blue:
		return "b"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Bounds is the dark (Low) and bright (High) reference frequency of a channel.
type Bounds struct {
	Low  int64
	High int64
}

// Calibration holds Bounds for each channel, indexed by Channel.
type Calibration [3]Bounds

// Sensor is the capability set shared by both acquisition strategies.
type Sensor interface {
	Red() (uint8, error)
	Green() (uint8, error)
	Blue() (uint8, error)

	// FillRGB writes the three intensities in R,G,B order.
	FillRGB(buf *[3]uint8) error
}

// WhiteBalancer records the current reading as the bright reference.
type WhiteBalancer interface {
	AdjustWhiteBalance(ctx context.Context) error
}

// BlackBalancer records the current reading as the dark reference.
type BlackBalancer interface {
	AdjustBlackBalance(ctx context.Context) error
}

// Reporter exposes the raw values behind the last reading.
type Reporter interface {
	Frequencies() [3]int64
	Calibration() Calibration
}

// Reading is one calibrated sample of all three channels.
type Reading struct {
	Timestamp time.Time
	RGB       [3]uint8
	Raw       [3]int64
}

// Counts tracks reading outcomes since startup.
type Counts struct {
	Readings  int
	Published int
	Errors    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
	Last      Reading
}
