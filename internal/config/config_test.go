package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "color-sensor.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	if c.Strategy != Interrupt {
		t.Errorf("Strategy: got %q, want %q", c.Strategy, Interrupt)
	}
	if c.PinOut != 17 || c.PinS2 != 27 || c.PinS3 != 22 {
		t.Errorf("pins: got %d,%d,%d", c.PinOut, c.PinS2, c.PinS3)
	}
	if c.Period != time.Second || c.Settle != 4*time.Second {
		t.Errorf("Period/Settle: got %v/%v", c.Period, c.Settle)
	}
	if c.Samples != 32 || c.CalibrationSamples != 255 {
		t.Errorf("samples: got %d,%d", c.Samples, c.CalibrationSamples)
	}
	if c.Mapping != "clamped" {
		t.Errorf("Mapping: got %q", c.Mapping)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `# color-sensor settings
[sensor]
strategy=polling      # pulse width
chip = gpiochip4
pins=5, 6, 13         # out,s2,s3
period=500ms          # unused by polling
settle=2s
samples=16,128        # reading, calibration

  # indented comment
timeout=100ms
mapping=legacy
[daemon]
broker=tcp://broker.local:1883
interval=250ms
heartbeat=1m
http=:8080
delta=5
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{
		Strategy:           Polling,
		Chip:               "gpiochip4",
		PinOut:             5,
		PinS2:              6,
		PinS3:              13,
		Period:             500 * time.Millisecond,
		Settle:             2 * time.Second,
		Samples:            16,
		CalibrationSamples: 128,
		PulseTimeout:       100 * time.Millisecond,
		Mapping:            "legacy",
		Broker:             "tcp://broker.local:1883",
		Interval:           250 * time.Millisecond,
		Heartbeat:          time.Minute,
		HTTP:               ":8080",
		Delta:              5,
	}
	if *c != want {
		t.Errorf("Load:\n got %+v\nwant %+v", *c, want)
	}
}

func TestLoadPackageSample(t *testing.T) {
	// The sample from the package documentation loads to the defaults.
	path := writeConfig(t, `[sensor]
strategy=interrupt      # interrupt or polling
chip=gpiochip0
pins=17,27,22           # out,s2,s3 (BCM)
period=1s               # interrupt: counting window per filter
settle=4s               # interrupt: wait before white balance
samples=32,255          # polling: reading, calibration
timeout=250ms           # polling: pulse capture timeout
mapping=clamped         # clamped or legacy
[daemon]
broker=tcp://192.168.1.200:1883
interval=1s
heartbeat=15m
http=:80
delta=2
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *c != *Default() {
		t.Errorf("Load:\n got %+v\nwant %+v", *c, *Default())
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `[daemon]
heartbeat=0s
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Heartbeat != 0 {
		t.Errorf("Heartbeat: got %v, want 0", c.Heartbeat)
	}
	d := Default()
	d.Heartbeat = 0
	if *c != *d {
		t.Errorf("expected defaults apart from heartbeat:\n got %+v\nwant %+v", *c, *d)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "[sensor]\nperiod=soon\n", "period"},
		{"bad delta", "[daemon]\ndelta=lots\n", "delta"},
		{"short pins", "[sensor]\npins=17,27\n", "pins"},
		{"long pins", "[sensor]\npins=17,27,22,5\n", "pins"},
		{"bad pin", "[sensor]\npins=17,s2,22\n", "pins"},
		{"single sample count", "[sensor]\nsamples=32\n", "samples"},
		{"two intervals", "[daemon]\ninterval=1s,2s\n", "interval"},
		{"empty strategy", "[sensor]\nstrategy=\n", "strategy"},
		{"two chips", "[sensor]\nchip=gpiochip0,gpiochip1\n", "chip"},
		{"comment only value", "[sensor]\nmapping=   # clamped\n", "mapping"},
		{"unknown key", "[sensor]\nstratgy=polling\n", "stratgy"},
		{"repeated key", "[daemon]\ndelta=2\ndelta=3\n", "repeated"},
		{"unknown strategy", "[sensor]\nstrategy=guess\n", "strategy"},
		{"unknown mapping", "[sensor]\nmapping=log\n", "mapping"},
		{"zero period", "[sensor]\nperiod=0s\n", "period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.conf")); err == nil {
		t.Error("expected error for missing file")
	}
}
