// Package counter implements the interrupt-driven estimator. A recurring timer
// cycles the sensor through its filters, and the rising edges counted during
// one timer period are the raw frequency of the filter active in that period.
//
// The edge and timer callbacks are package-level functions that forward into
// the one active Estimator, so only one Estimator may be initialized per
// process at a time.
package counter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/filter"
	"github.com/sweeney/color-sensor/internal/gpio"
)

const (
	// DefaultPeriod is the measurement window per filter.
	DefaultPeriod = time.Second
	// DefaultSettle covers at least one full RED, GREEN, BLUE cycle.
	DefaultSettle = 4 * time.Second
	// DefaultCeiling is the white bound used before calibration: the edge
	// count expected in one second at 2% output scaling.
	DefaultCeiling = 1000
)

// ErrActive is returned by Initialize when another Estimator is live.
var ErrActive = errors.New("counter: another estimator is already active")

var active atomic.Pointer[Estimator]

// Active returns the initialized Estimator, or nil.
func Active() *Estimator {
	return active.Load()
}

func edgeInterrupt() {
	if e := active.Load(); e != nil {
		e.pending.Add(1)
	}
}

func timerInterrupt() {
	if e := active.Load(); e != nil {
		e.tick()
	}
}

// Config controls the estimator. Zero fields take the defaults.
type Config struct {
	Period  time.Duration
	Settle  time.Duration
	Ceiling int64
	Mode    color.Mode
}

// Estimator holds the filter-cycle state. Every field shared with the
// callbacks is a single atomic word so reads from the caller never tear.
type Estimator struct {
	cfg    Config
	filter *filter.Controller
	edges  gpio.EdgeSource
	timer  gpio.Timer

	pending atomic.Uint32
	last    [3]atomic.Int64
	white   [3]atomic.Int64

	// armed is set once the hardware fields are bound and cleared by Close.
	// The timer callback does nothing while it is false.
	armed atomic.Bool

	// mu serializes the tick handler with white balance capture.
	mu sync.Mutex
}

// New creates an Estimator with every white bound at the ceiling.
func New(cfg Config) *Estimator {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}

	e := &Estimator{cfg: cfg}
	for i := range e.white {
		e.white[i].Store(cfg.Ceiling)
	}
	return e
}

// Initialize binds the hardware, selects CLEAR to warm up the filter lines,
// attaches the edge and timer callbacks and arms the first tick.
func (e *Estimator) Initialize(sel *filter.Controller, edges gpio.EdgeSource, timer gpio.Timer) error {
	if !active.CompareAndSwap(nil, e) {
		return ErrActive
	}

	e.filter = sel
	e.edges = edges
	e.timer = timer

	if err := sel.Select(color.FilterClear); err != nil {
		active.CompareAndSwap(e, nil)
		return fmt.Errorf("initialize: %w", err)
	}

	timer.Attach(timerInterrupt)
	if err := edges.Attach(edgeInterrupt); err != nil {
		active.CompareAndSwap(e, nil)
		return fmt.Errorf("attach edge handler: %w", err)
	}
	e.armed.Store(true)
	timer.Arm(e.cfg.Period)

	log.Printf("counter: armed (period=%v white=%v)", e.cfg.Period, e.whiteBounds())
	return nil
}

// tick closes the current measurement window and moves to the next filter.
// If the switch fails the same filter is measured again.
func (e *Estimator) tick() {
	if !e.armed.Load() {
		return
	}
	e.mu.Lock()
	n := e.pending.Swap(0)
	cur := e.filter.Current()
	if ch, ok := cur.Channel(); ok {
		e.last[ch].Store(int64(n))
	}
	if err := e.filter.Select(next(cur)); err != nil {
		log.Printf("counter: %v", err)
	}
	e.mu.Unlock()

	e.timer.Arm(e.cfg.Period)
}

// next returns the filter after f. CLEAR is only ever the warm-up state.
func next(f color.Filter) color.Filter {
	switch f {
	case color.FilterRed:
		return color.FilterGreen
	case color.FilterGreen:
		return color.FilterBlue
	}
	return color.FilterRed
}

// AdjustWhiteBalance waits for a full filter cycle and then records the last
// frequency of each channel as its white bound.
func (e *Estimator) AdjustWhiteBalance(ctx context.Context) error {
	t := time.NewTimer(e.cfg.Settle)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	e.mu.Lock()
	for i := range e.white {
		e.white[i].Store(e.last[i].Load())
	}
	e.mu.Unlock()

	log.Printf("counter: white balance %v", e.whiteBounds())
	return nil
}

func (e *Estimator) channel(c color.Channel) (uint8, error) {
	v, err := e.cfg.Mode.Map(e.last[c].Load(), 0, e.white[c].Load())
	if err != nil {
		return 0, fmt.Errorf("%s channel: %w", c, err)
	}
	return v, nil
}

// Red returns the red intensity of the last completed cycle.
func (e *Estimator) Red() (uint8, error) { return e.channel(color.Red) }

// Green returns the green intensity of the last completed cycle.
func (e *Estimator) Green() (uint8, error) { return e.channel(color.Green) }

// Blue returns the blue intensity of the last completed cycle.
func (e *Estimator) Blue() (uint8, error) { return e.channel(color.Blue) }

// FillRGB writes all three intensities. The channels may come from adjacent
// cycles.
func (e *Estimator) FillRGB(buf *[3]uint8) error {
	for _, c := range color.Channels {
		v, err := e.channel(c)
		if err != nil {
			return err
		}
		buf[c] = v
	}
	return nil
}

// Frequencies returns the last completed edge count per channel.
func (e *Estimator) Frequencies() [3]int64 {
	var f [3]int64
	for i := range f {
		f[i] = e.last[i].Load()
	}
	return f
}

func (e *Estimator) whiteBounds() [3]int64 {
	var w [3]int64
	for i := range w {
		w[i] = e.white[i].Load()
	}
	return w
}

// Calibration returns the bounds in use. The dark bound is always 0.
func (e *Estimator) Calibration() color.Calibration {
	var c color.Calibration
	for i, w := range e.whiteBounds() {
		c[i] = color.Bounds{Low: 0, High: w}
	}
	return c
}

// Pending returns the edges counted so far in the current window.
func (e *Estimator) Pending() uint32 {
	return e.pending.Load()
}

// Filter returns the filter currently being measured.
func (e *Estimator) Filter() color.Filter {
	if e.filter == nil {
		return color.FilterClear
	}
	return e.filter.Current()
}

// Close stops the timer and edge delivery and releases the active slot.
func (e *Estimator) Close() error {
	e.armed.Store(false)
	if e.timer != nil {
		e.timer.Stop()
	}
	var err error
	if e.edges != nil {
		err = e.edges.Close()
	}
	active.CompareAndSwap(e, nil)
	return err
}
