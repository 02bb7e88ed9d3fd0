package color

import "time"

// Detector decides which readings are worth publishing.
type Detector struct {
	delta         int
	startTime     time.Time
	lastHeartbeat time.Time
	published     Reading
	hasReading    bool
	counts        Counts
}

// NewDetector creates a detector that reports a change once any channel moves
// by at least delta. The startTime is used for calculating uptime in heartbeats.
func NewDetector(delta int, startTime time.Time) *Detector {
	if delta < 1 {
		delta = 1
	}
	return &Detector{
		delta:         delta,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new reading and returns it with true if it should be published.
// The first reading is always published.
func (d *Detector) Process(r Reading) (Reading, bool) {
	d.counts.Readings++

	if d.hasReading && !d.changed(r.RGB) {
		return Reading{}, false
	}

	d.published = r
	d.hasReading = true
	d.counts.Published++
	return r, true
}

// RecordError counts a failed acquisition.
func (d *Detector) RecordError() {
	d.counts.Errors++
}

func (d *Detector) changed(rgb [3]uint8) bool {
	for i := range rgb {
		diff := int(rgb[i]) - int(d.published.RGB[i])
		if diff < 0 {
			diff = -diff
		}
		if diff >= d.delta {
			return true
		}
	}
	return false
}

// HasReading returns whether any reading has been published.
func (d *Detector) HasReading() bool {
	return d.hasReading
}

// Last returns the last published reading.
func (d *Detector) Last() Reading {
	return d.published
}

// CountsSnapshot returns a copy of the counters.
func (d *Detector) CountsSnapshot() Counts {
	return d.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if no reading has been published yet,
// if the interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.hasReading {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.counts,
		Last:      d.published,
	}
}
