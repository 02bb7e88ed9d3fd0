package color

import (
	"testing"
	"time"
)

func reading(at time.Time, r, g, b uint8) Reading {
	return Reading{Timestamp: at, RGB: [3]uint8{r, g, b}}
}

func TestNewDetector(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(0, start)
	if d == nil {
		t.Fatal("NewDetector returned nil")
	}
	if d.delta != 1 {
		t.Errorf("expected delta clamped to 1, got %d", d.delta)
	}
	if d.HasReading() {
		t.Error("new detector should have no reading")
	}
	if !d.lastHeartbeat.Equal(start) {
		t.Errorf("expected lastHeartbeat %v, got %v", start, d.lastHeartbeat)
	}
}

func TestFirstReadingAlwaysPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(10, now)

	r, ok := d.Process(reading(now, 0, 0, 0))
	if !ok {
		t.Fatal("first reading should be published")
	}
	if !r.Timestamp.Equal(now) {
		t.Errorf("unexpected timestamp: %v", r.Timestamp)
	}
	if !d.HasReading() {
		t.Error("expected HasReading after first reading")
	}
}

func TestSmallChangesSuppressed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(3, now)
	d.Process(reading(now, 100, 100, 100))

	for i, rgb := range [][3]uint8{{101, 100, 100}, {98, 102, 100}, {100, 100, 102}} {
		if _, ok := d.Process(reading(now, rgb[0], rgb[1], rgb[2])); ok {
			t.Errorf("sample %d: change %v below delta should be suppressed", i, rgb)
		}
	}

	// Compared against the last published reading, not the last processed one.
	if got := d.Last().RGB; got != [3]uint8{100, 100, 100} {
		t.Errorf("Last: got %v, want [100 100 100]", got)
	}
}

func TestChangeAtDeltaPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(3, now)
	d.Process(reading(now, 100, 100, 100))

	r, ok := d.Process(reading(now.Add(time.Second), 100, 97, 100))
	if !ok {
		t.Fatal("change equal to delta should be published")
	}
	if r.RGB != [3]uint8{100, 97, 100} {
		t.Errorf("unexpected RGB: %v", r.RGB)
	}
	if d.Last().RGB != r.RGB {
		t.Errorf("Last not updated: %v", d.Last().RGB)
	}
}

func TestCounts(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(2, now)

	d.Process(reading(now, 10, 10, 10))
	d.Process(reading(now, 11, 10, 10))
	d.Process(reading(now, 50, 10, 10))
	d.RecordError()

	c := d.CountsSnapshot()
	if c.Readings != 3 {
		t.Errorf("Readings: got %d, want 3", c.Readings)
	}
	if c.Published != 2 {
		t.Errorf("Published: got %d, want 2", c.Published)
	}
	if c.Errors != 1 {
		t.Errorf("Errors: got %d, want 1", c.Errors)
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(1, now)
	d.Process(reading(now, 1, 2, 3))

	if hb := d.CheckHeartbeat(now.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat when interval is 0")
	}
}

func TestHeartbeatRequiresReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(1, now)

	if hb := d.CheckHeartbeat(now.Add(time.Hour), time.Minute); hb != nil {
		t.Error("expected nil heartbeat before any reading")
	}
}

func TestHeartbeatInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(1, start)
	d.Process(reading(start, 1, 2, 3))

	if hb := d.CheckHeartbeat(start.Add(59*time.Second), time.Minute); hb != nil {
		t.Error("expected nil heartbeat before interval")
	}

	hb := d.CheckHeartbeat(start.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("Uptime: got %v, want 1m", hb.Uptime)
	}
	if hb.Counts.Readings != 1 {
		t.Errorf("Counts.Readings: got %d, want 1", hb.Counts.Readings)
	}
	if hb.Last.RGB != [3]uint8{1, 2, 3} {
		t.Errorf("Last: got %v", hb.Last.RGB)
	}

	if hb := d.CheckHeartbeat(start.Add(90*time.Second), time.Minute); hb != nil {
		t.Error("heartbeat interval should restart from last heartbeat")
	}
	if hb := d.CheckHeartbeat(start.Add(2*time.Minute), time.Minute); hb == nil {
		t.Error("expected second heartbeat")
	}
}
