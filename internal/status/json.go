package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	BootID        string          `json:"boot_id"`
	Color         *ColorJSON      `json:"color,omitempty"`
	Calibration   CalibrationJSON `json:"calibration"`
	Ready         bool            `json:"ready"`
	LastError     string          `json:"last_error,omitempty"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"counts"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// ColorJSON is the last reading.
type ColorJSON struct {
	R   uint8    `json:"r"`
	G   uint8    `json:"g"`
	B   uint8    `json:"b"`
	Hex string   `json:"hex"`
	Raw [3]int64 `json:"raw"`
}

// BoundsJSON is one channel's calibration.
type BoundsJSON struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// CalibrationJSON holds the bounds of each channel.
type CalibrationJSON struct {
	R BoundsJSON `json:"r"`
	G BoundsJSON `json:"g"`
	B BoundsJSON `json:"b"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the acquisition counters.
type CountsJSON struct {
	Readings  int    `json:"readings"`
	Published int    `json:"published"`
	Errors    int    `json:"errors"`
	Timeouts  uint64 `json:"pulse_timeouts"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Strategy    string `json:"strategy"`
	Mapping     string `json:"mapping"`
	Chip        string `json:"chip"`
	Pins        [3]int `json:"pins"`
	IntervalMs  int64  `json:"interval_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Delta       int    `json:"delta"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func bounds(b color.Bounds) BoundsJSON {
	return BoundsJSON{Low: b.Low, High: b.High}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		BootID: snap.BootID,
		Calibration: CalibrationJSON{
			R: bounds(snap.Calibration[color.Red]),
			G: bounds(snap.Calibration[color.Green]),
			B: bounds(snap.Calibration[color.Blue]),
		},
		Ready:         snap.Ready,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Readings:  snap.Counts.Readings,
			Published: snap.Counts.Published,
			Errors:    snap.Counts.Errors,
			Timeouts:  snap.Timeouts,
		},
		Config: ConfigJSON{
			Strategy:    snap.Config.Strategy,
			Mapping:     snap.Config.Mapping,
			Chip:        snap.Config.Chip,
			Pins:        [3]int{snap.Config.Pins.Out, snap.Config.Pins.S2, snap.Config.Pins.S3},
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Delta:       snap.Config.Delta,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}

	if snap.Ready {
		inner.Color = &ColorJSON{
			R:   snap.RGB[color.Red],
			G:   snap.RGB[color.Green],
			B:   snap.RGB[color.Blue],
			Hex: color.Hex(snap.RGB),
			Raw: snap.Raw,
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
