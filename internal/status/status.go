// Package status provides a thread-safe status tracker for the color-sensor daemon.
// It is read by HTTP handlers and by the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Pins holds the BCM line offsets in use.
type Pins struct {
	Out, S2, S3 int
}

// Config contains daemon configuration for display.
type Config struct {
	Strategy    string
	Mapping     string
	Chip        string
	Pins        Pins
	IntervalMs  int64
	HeartbeatMs int64
	Delta       int
	Broker      string
	HTTPPort    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	RGB           [3]uint8
	Raw           [3]int64
	Calibration   color.Calibration
	Ready         bool
	Counts        color.Counts
	Timeouts      uint64
	LastError     string
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot ID and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			BootID:    bootID,
			Config:    cfg,
		},
	}
}

// Update stores the latest reading and counters. A reading marks the
// tracker ready. Called from runLoop on every tick.
func (t *Tracker) Update(r color.Reading, counts color.Counts) {
	t.mu.Lock()
	t.snap.RGB = r.RGB
	t.snap.Raw = r.Raw
	t.snap.Ready = true
	t.snap.LastError = ""
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordError stores a failed acquisition without discarding the last reading.
func (t *Tracker) RecordError(err error, counts color.Counts) {
	t.mu.Lock()
	t.snap.LastError = err.Error()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetCalibration sets the per-channel bounds shown on the status page.
func (t *Tracker) SetCalibration(c color.Calibration) {
	t.mu.Lock()
	t.snap.Calibration = c
	t.mu.Unlock()
}

// SetTimeouts sets the number of timed-out pulse captures.
func (t *Tracker) SetTimeouts(n uint64) {
	t.mu.Lock()
	t.snap.Timeouts = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
