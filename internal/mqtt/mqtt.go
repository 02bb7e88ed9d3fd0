// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
)

// Topic is the MQTT topic for colour readings.
const Topic = "sensors/color/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/color/system"

// ClientID identifies the daemon to the broker.
const ClientID = "color-sensor"

// Publisher publishes readings to MQTT.
type Publisher interface {
	// Publish sends a colour reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(reading color.Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "CALIBRATED"
	Reason     string // e.g., "SIGTERM", "white" (shutdown and calibration only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Color ColorPayload `json:"color"`
}

// ColorPayload contains one calibrated reading.
type ColorPayload struct {
	Timestamp string     `json:"timestamp"`
	R         uint8      `json:"r"`
	G         uint8      `json:"g"`
	B         uint8      `json:"b"`
	Hex       string     `json:"hex"`
	Raw       RawPayload `json:"raw"`
}

// RawPayload carries the raw frequency behind each channel.
type RawPayload struct {
	R int64 `json:"r"`
	G int64 `json:"g"`
	B int64 `json:"b"`
}

// FormatPayload creates the JSON payload for a reading.
func FormatPayload(r color.Reading) ([]byte, error) {
	payload := Payload{
		Color: ColorPayload{
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			R:         r.RGB[color.Red],
			G:         r.RGB[color.Green],
			B:         r.RGB[color.Blue],
			Hex:       color.Hex(r.RGB),
			Raw: RawPayload{
				R: r.Raw[color.Red],
				G: r.Raw[color.Green],
				B: r.Raw[color.Blue],
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
