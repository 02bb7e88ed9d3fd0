package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
)

func sampleReading() color.Reading {
	return color.Reading{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		RGB:       [3]uint8{255, 128, 0},
		Raw:       [3]int64{980, 501, 12},
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(sampleReading())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	c := parsed.Color
	if c.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", c.Timestamp)
	}
	if c.R != 255 || c.G != 128 || c.B != 0 {
		t.Errorf("unexpected rgb: %d,%d,%d", c.R, c.G, c.B)
	}
	if c.Hex != "#ff8000" {
		t.Errorf("unexpected hex: %s", c.Hex)
	}
	if c.Raw != (RawPayload{R: 980, G: 501, B: 12}) {
		t.Errorf("unexpected raw: %+v", c.Raw)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, _ := FormatPayload(sampleReading())

	want := `{"color":{"timestamp":"2026-02-02T22:18:12Z","r":255,"g":128,"b":0,"hex":"#ff8000","raw":{"r":980,"g":501,"b":12}}}`
	if string(payload) != want {
		t.Errorf("payload:\n got %s\nwant %s", payload, want)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	r := sampleReading()
	r.Timestamp = time.Date(2026, 6, 1, 12, 0, 0, 0, time.FixedZone("BST", 3600))

	payload, _ := FormatPayload(r)
	var parsed Payload
	json.Unmarshal(payload, &parsed)

	if parsed.Color.Timestamp != "2026-06-01T11:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Color.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "sensors/color/readings" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "sensors/color/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		event SystemEvent
		want  string
	}{
		{
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "SHUTDOWN", Reason: "SIGTERM"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "OFFLINE"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"OFFLINE"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.event.Event, func(t *testing.T) {
			got, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("payload:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{}}`)
	got, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", got)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(sampleReading()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Readings) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 reading and payload, got %d/%d", len(f.Readings), len(f.Payloads))
	}

	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "SHUTDOWN"})
	if got := f.Events(); len(got) != 2 || got[0] != "STARTUP" || got[1] != "SHUTDOWN" {
		t.Errorf("Events: got %v", got)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("publish failed")
	f.PublishSystemError = errors.New("system failed")

	if err := f.Publish(sampleReading()); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected system publish error")
	}
	if len(f.Readings) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(sampleReading())
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Readings != nil || f.SystemEvents != nil || f.Closed || f.Connected {
		t.Errorf("Reset left state behind: %+v", f)
	}
}
