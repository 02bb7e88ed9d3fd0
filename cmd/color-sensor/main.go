// Command color-sensor reads a TCS230/TCS3200 colour sensor and publishes
// calibrated RGB readings to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/config"
	"github.com/sweeney/color-sensor/internal/counter"
	"github.com/sweeney/color-sensor/internal/filter"
	"github.com/sweeney/color-sensor/internal/gpio"
	"github.com/sweeney/color-sensor/internal/mqtt"
	"github.com/sweeney/color-sensor/internal/poller"
	"github.com/sweeney/color-sensor/internal/status"
	"github.com/sweeney/color-sensor/internal/web"
)

type options struct {
	cfg          *config.Config
	whiteBalance bool
	blackBalance bool
	printRGB     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// bindFlags registers the flags that mirror config file keys, writing into c.
func bindFlags(fs *flag.FlagSet, c *config.Config) {
	fs.StringVar(&c.Strategy, "strategy", c.Strategy, "Acquisition strategy: interrupt or polling")
	fs.StringVar(&c.Chip, "chip", c.Chip, "GPIO chip name")
	fs.IntVar(&c.PinOut, "pin-out", c.PinOut, "BCM pin number for sensor OUT")
	fs.IntVar(&c.PinS2, "pin-s2", c.PinS2, "BCM pin number for filter select S2")
	fs.IntVar(&c.PinS3, "pin-s3", c.PinS3, "BCM pin number for filter select S3")
	fs.DurationVar(&c.Period, "period", c.Period, "Counting window per filter (interrupt)")
	fs.DurationVar(&c.Settle, "settle", c.Settle, "Wait before white balance capture (interrupt)")
	fs.IntVar(&c.Samples, "samples", c.Samples, "Pulses averaged per reading (polling)")
	fs.IntVar(&c.CalibrationSamples, "calibration-samples", c.CalibrationSamples, "Pulses averaged per calibration channel (polling)")
	fs.DurationVar(&c.PulseTimeout, "pulse-timeout", c.PulseTimeout, "Timeout for one pulse capture (polling)")
	fs.StringVar(&c.Mapping, "mapping", c.Mapping, "Frequency mapping: clamped or legacy")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Reading interval")
	fs.IntVar(&c.Delta, "delta", c.Delta, "Minimum per-channel change to publish")
	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&c.HTTP, "http", c.HTTP, "HTTP status address (empty to disable)")
}

// parseFlags builds the effective configuration. Values come from the
// defaults, then the -config file, then any flag given explicitly.
func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("color-sensor", flag.ContinueOnError)
	configPath := fs.String("config", "", "Configuration file (optional)")
	opts := &options{cfg: config.Default()}
	bindFlags(fs, opts.cfg)
	fs.BoolVar(&opts.whiteBalance, "white-balance", false, "Calibrate against a white reference at startup")
	fs.BoolVar(&opts.blackBalance, "black-balance", false, "Calibrate against a black reference at startup (polling only)")
	fs.BoolVar(&opts.printRGB, "print-rgb", false, "Print one reading and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		overlay := flag.NewFlagSet("overlay", flag.ContinueOnError)
		bindFlags(overlay, fileCfg)
		var setErr error
		fs.Visit(func(f *flag.Flag) {
			if overlay.Lookup(f.Name) == nil {
				return
			}
			if err := overlay.Set(f.Name, f.Value.String()); err != nil && setErr == nil {
				setErr = fmt.Errorf("-%s: %w", f.Name, err)
			}
		})
		if setErr != nil {
			return nil, setErr
		}
		opts.cfg = fileCfg
	}

	if err := opts.cfg.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// device is what both acquisition strategies provide.
type device interface {
	color.Sensor
	color.Reporter
	Close() error
}

// hardware pairs a strategy with the filter lines it drives.
type hardware struct {
	device
	filter *filter.Controller
}

func (h *hardware) Close() error {
	return errors.Join(h.device.Close(), h.filter.Close())
}

func openSensor(cfg *config.Config, mode color.Mode) (*hardware, error) {
	sel, err := gpio.NewRealSelector(cfg.Chip, cfg.PinS2, cfg.PinS3)
	if err != nil {
		return nil, fmt.Errorf("init select lines: %w", err)
	}
	ctrl := filter.New(sel)

	switch cfg.Strategy {
	case config.Polling:
		pulses, err := gpio.NewRealPulseReader(cfg.Chip, cfg.PinOut)
		if err != nil {
			ctrl.Close()
			return nil, fmt.Errorf("init output line: %w", err)
		}
		s := poller.New(ctrl, pulses, poller.Config{
			Samples:            cfg.Samples,
			CalibrationSamples: cfg.CalibrationSamples,
			Timeout:            cfg.PulseTimeout,
			Mode:               mode,
		})
		return &hardware{device: s, filter: ctrl}, nil

	default:
		e := counter.New(counter.Config{Period: cfg.Period, Settle: cfg.Settle, Mode: mode})
		if err := e.Initialize(ctrl, gpio.NewRealEdgeSource(cfg.Chip, cfg.PinOut), gpio.NewRealTimer()); err != nil {
			e.Close()
			ctrl.Close()
			return nil, fmt.Errorf("init counter: %w", err)
		}
		return &hardware{device: e, filter: ctrl}, nil
	}
}

// calibrate runs the balance named by ref against s. Pass the strategy
// itself rather than a wrapper so the optional interfaces are visible.
func calibrate(ctx context.Context, s color.Sensor, ref string) error {
	switch ref {
	case web.White:
		wb, ok := s.(color.WhiteBalancer)
		if !ok {
			return web.ErrUnsupported
		}
		return wb.AdjustWhiteBalance(ctx)
	case web.Black:
		bb, ok := s.(color.BlackBalancer)
		if !ok {
			return web.ErrUnsupported
		}
		return bb.AdjustBlackBalance(ctx)
	}
	return fmt.Errorf("unknown reference %q", ref)
}

func run(opts *options) error {
	cfg := opts.cfg
	mode, err := color.ParseMode(cfg.Mapping)
	if err != nil {
		return err
	}

	hw, err := openSensor(cfg, mode)
	if err != nil {
		return err
	}
	defer hw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.blackBalance {
		log.Printf("calibrating black: cover the sensor with the black reference")
		if err := calibrate(ctx, hw.device, web.Black); err != nil {
			return fmt.Errorf("black balance: %w", err)
		}
	}
	if opts.whiteBalance {
		log.Printf("calibrating white: cover the sensor with the white reference")
		if err := calibrate(ctx, hw.device, web.White); err != nil {
			return fmt.Errorf("white balance: %w", err)
		}
	}
	log.Printf("calibration: %v", hw.Calibration())

	// Print RGB mode
	if opts.printRGB {
		if cfg.Strategy == config.Interrupt && !opts.whiteBalance {
			// Let the counter complete a full filter cycle first.
			time.Sleep(cfg.Settle)
		}
		var rgb [3]uint8
		if err := hw.FillRGB(&rgb); err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		f := hw.Frequencies()
		fmt.Printf("R: %d, G: %d, B: %d (%s) raw=%d,%d,%d Hz\n", rgb[0], rgb[1], rgb[2], color.Hex(rgb), f[0], f[1], f[2])
		return nil
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(cfg.Broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), uuid.NewString(), status.Config{
		Strategy:    cfg.Strategy,
		Mapping:     mode.String(),
		Chip:        cfg.Chip,
		Pins:        status.Pins{Out: cfg.PinOut, S2: cfg.PinS2, S3: cfg.PinS3},
		IntervalMs:  cfg.Interval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Delta:       cfg.Delta,
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTP,
	})
	tracker.SetCalibration(hw.Calibration())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	calib := make(chan web.CalibrationRequest)
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, calib)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: strategy=%s mapping=%s interval=%v delta=%d broker=%s heartbeat=%v",
		cfg.Strategy, mode, cfg.Interval, cfg.Delta, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// The startup calibration context is done with; runLoop reports shutdown itself.
	stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(hw.device, publisher, publisher, tracker, cfg.Delta, cfg.Heartbeat, time.Now, ticker.C, calib, sigCh)
}

// syncTracker copies state that the sensor and publisher own into the tracker.
func syncTracker(tracker *status.Tracker, sensor color.Sensor, mqttStatus mqtt.ConnectionStatus) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	if rep, ok := sensor.(color.Reporter); ok {
		tracker.SetCalibration(rep.Calibration())
	}
	if tc, ok := sensor.(interface{ Timeouts() int }); ok {
		tracker.SetTimeouts(uint64(tc.Timeouts()))
	}
}

// calibrateRequest runs req against sensor. It stops early when the
// requester's context ends or a signal arrives on sig; the signal is returned
// so the caller can still shut down.
func calibrateRequest(req web.CalibrationRequest, sensor color.Sensor, sig <-chan os.Signal) (os.Signal, error) {
	parent := req.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	got := make(chan os.Signal, 1)
	go func() {
		select {
		case s := <-sig:
			cancel()
			got <- s
		case <-done:
			got <- nil
		}
	}()

	err := calibrate(ctx, sensor, req.Reference)
	close(done)
	return <-got, err
}

func runLoop(sensor color.Sensor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, delta int, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, calib <-chan web.CalibrationRequest, sig <-chan os.Signal) error {
	startTime := now()
	detector := color.NewDetector(delta, startTime)

	shutdown := func(s os.Signal) {
		log.Printf("received %v, shutting down", s)
		signalName := "UNKNOWN"
		if s == syscall.SIGINT {
			signalName = "SIGINT"
		} else if s == syscall.SIGTERM {
			signalName = "SIGTERM"
		}
		event := mqtt.SystemEvent{
			Timestamp: now(),
			Event:     "SHUTDOWN",
			Reason:    signalName,
			Retained:  true,
		}
		if tracker != nil {
			syncTracker(tracker, sensor, mqttStatus)
			snap := tracker.Snapshot()
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}

	for {
		select {
		case s := <-sig:
			shutdown(s)
			return nil

		case req := <-calib:
			log.Printf("calibrating %s", req.Reference)
			s, err := calibrateRequest(req, sensor, sig)
			if err != nil {
				log.Printf("calibrate %s: %v", req.Reference, err)
				req.Result <- err
			} else {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "CALIBRATED",
					Reason:    req.Reference,
				}
				if rep, ok := sensor.(color.Reporter); ok {
					log.Printf("calibrated %s: %v", req.Reference, rep.Calibration())
				}
				if tracker != nil {
					syncTracker(tracker, sensor, mqttStatus)
					snap := tracker.Snapshot()
					event.RawPayload = status.FormatStatusEvent(snap, "CALIBRATED", req.Reference)
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("calibration publish error: %v", err)
				}
				req.Result <- nil
			}
			if s != nil {
				shutdown(s)
				return nil
			}

		case <-tick:
			t := now()
			var rgb [3]uint8
			if err := sensor.FillRGB(&rgb); err != nil {
				log.Printf("sensor read error: %v", err)
				detector.RecordError()
				if tracker != nil {
					tracker.RecordError(err, detector.CountsSnapshot())
					syncTracker(tracker, sensor, mqttStatus)
				}
				continue
			}

			reading := color.Reading{Timestamp: t, RGB: rgb}
			if rep, ok := sensor.(color.Reporter); ok {
				reading.Raw = rep.Frequencies()
			}

			if r, changed := detector.Process(reading); changed {
				log.Printf("color: %s (r=%d g=%d b=%d)", color.Hex(r.RGB), r.RGB[0], r.RGB[1], r.RGB[2])
				if err := publisher.Publish(r); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(reading, detector.CountsSnapshot())
				syncTracker(tracker, sensor, mqttStatus)
			}

			// Check for heartbeat
			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v readings=%d published=%d errors=%d",
					hbData.Uptime, hbData.Counts.Readings, hbData.Counts.Published, hbData.Counts.Errors)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
