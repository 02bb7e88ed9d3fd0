// Package config loads daemon settings from an optional configuration file.
//
// Sample config:
//
//	[sensor]
//	strategy=interrupt      # interrupt or polling
//	chip=gpiochip0
//	pins=17,27,22           # out,s2,s3 (BCM)
//	period=1s               # interrupt: counting window per filter
//	settle=4s               # interrupt: wait before white balance
//	samples=32,255          # polling: reading, calibration
//	timeout=250ms           # polling: pulse capture timeout
//	mapping=clamped         # clamped or legacy
//	[daemon]
//	broker=tcp://192.168.1.200:1883
//	interval=1s
//	heartbeat=15m
//	http=:80
//	delta=2
//
// Keys are written key=value, with comma-separated lists for pins and samples.
// Text after '#' is a comment. Keys that are absent keep their defaults; an
// unknown, repeated or malformed key is an error.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aamcrae/config"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/counter"
	"github.com/sweeney/color-sensor/internal/gpio"
	"github.com/sweeney/color-sensor/internal/poller"
)

// Strategy names.
const (
	Interrupt = "interrupt"
	Polling   = "polling"
)

// Config holds every setting the daemon reads.
type Config struct {
	Strategy           string
	Chip               string
	PinOut             int
	PinS2              int
	PinS3              int
	Period             time.Duration
	Settle             time.Duration
	Samples            int
	CalibrationSamples int
	PulseTimeout       time.Duration
	Mapping            string

	Broker    string
	Interval  time.Duration
	Heartbeat time.Duration
	HTTP      string
	Delta     int
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Strategy:           Interrupt,
		Chip:               gpio.DefaultChip,
		PinOut:             gpio.DefaultPinOut,
		PinS2:              gpio.DefaultPinS2,
		PinS3:              gpio.DefaultPinS3,
		Period:             counter.DefaultPeriod,
		Settle:             counter.DefaultSettle,
		Samples:            poller.DefaultSamples,
		CalibrationSamples: poller.DefaultCalibrationSamples,
		PulseTimeout:       poller.DefaultTimeout,
		Mapping:            color.Clamped.String(),
		Broker:             "tcp://192.168.1.200:1883",
		Interval:           time.Second,
		Heartbeat:          15 * time.Minute,
		HTTP:               ":80",
		Delta:              2,
	}
}

// Load reads path and overlays it on Default.
func Load(path string) (*Config, error) {
	conf, err := config.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c := Default()
	if s := conf.GetSection("sensor"); s != nil {
		if err := c.sensor(s); err != nil {
			return nil, fmt.Errorf("%s: [sensor] %w", path, err)
		}
	}
	if s := conf.GetSection("daemon"); s != nil {
		if err := c.daemon(s); err != nil {
			return nil, fmt.Errorf("%s: [daemon] %w", path, err)
		}
	}
	return c, c.Validate()
}

// Validate checks values that would otherwise fail deep inside the daemon.
func (c *Config) Validate() error {
	if c.Strategy != Interrupt && c.Strategy != Polling {
		return fmt.Errorf("strategy: unknown %q", c.Strategy)
	}
	if _, err := color.ParseMode(c.Mapping); err != nil {
		return fmt.Errorf("mapping: %w", err)
	}
	if c.Period <= 0 {
		return fmt.Errorf("period: must be positive, got %v", c.Period)
	}
	if c.Samples < 1 || c.CalibrationSamples < 1 {
		return fmt.Errorf("samples: must be positive, got %d,%d", c.Samples, c.CalibrationSamples)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval: must be positive, got %v", c.Interval)
	}
	return nil
}

// values holds the arguments of each key in one section, with any trailing
// comment removed.
type values map[string][]string

// readSection collects the entries of s. Keys outside known, or repeated
// keys, are reported with their line number.
func readSection(s *config.Section, known ...string) (values, error) {
	v := values{}
	for _, e := range s.GetEntries() {
		key := strings.TrimSpace(e.Keyword)
		if !slices.Contains(known, key) {
			return nil, fmt.Errorf("line %d: unknown key %q", e.Lineno, key)
		}
		if _, dup := v[key]; dup {
			return nil, fmt.Errorf("line %d: %s: repeated key", e.Lineno, key)
		}
		args, _, _ := strings.Cut(e.Args, "#")
		var tokens []string
		for _, t := range strings.Split(args, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}
		v[key] = tokens
	}
	return v, nil
}

func (v values) str(key string, dst *string) error {
	t, ok := v[key]
	if !ok {
		return nil
	}
	if len(t) != 1 {
		return fmt.Errorf("%s: want 1 value, got %d", key, len(t))
	}
	*dst = t[0]
	return nil
}

func (v values) ints(key string, dst ...*int) error {
	t, ok := v[key]
	if !ok {
		return nil
	}
	if len(t) != len(dst) {
		return fmt.Errorf("%s: want %d values, got %d", key, len(dst), len(t))
	}
	n := make([]int, len(t))
	for i, tok := range t {
		var err error
		if n[i], err = strconv.Atoi(tok); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	for i := range dst {
		*dst[i] = n[i]
	}
	return nil
}

func (v values) duration(key string, dst *time.Duration) error {
	if _, ok := v[key]; !ok {
		return nil
	}
	var s string
	if err := v.str(key, &s); err != nil {
		return err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func (c *Config) sensor(s *config.Section) error {
	v, err := readSection(s, "strategy", "chip", "pins", "period", "settle", "samples", "timeout", "mapping")
	if err != nil {
		return err
	}
	return errors.Join(
		v.str("strategy", &c.Strategy),
		v.str("chip", &c.Chip),
		v.ints("pins", &c.PinOut, &c.PinS2, &c.PinS3),
		v.duration("period", &c.Period),
		v.duration("settle", &c.Settle),
		v.ints("samples", &c.Samples, &c.CalibrationSamples),
		v.duration("timeout", &c.PulseTimeout),
		v.str("mapping", &c.Mapping),
	)
}

func (c *Config) daemon(s *config.Section) error {
	v, err := readSection(s, "broker", "interval", "heartbeat", "http", "delta")
	if err != nil {
		return err
	}
	return errors.Join(
		v.str("broker", &c.Broker),
		v.duration("interval", &c.Interval),
		v.duration("heartbeat", &c.Heartbeat),
		v.str("http", &c.HTTP),
		v.ints("delta", &c.Delta),
	)
}
