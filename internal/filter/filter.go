// Package filter drives the sensor's photodiode filter select lines.
package filter

import (
	"fmt"
	"sync/atomic"

	"github.com/sweeney/color-sensor/internal/color"
	"github.com/sweeney/color-sensor/internal/gpio"
)

// Controller selects one of the four filters through the S2/S3 lines.
// Current is safe to call from any goroutine; Select is not reentrant.
type Controller struct {
	lines   gpio.Selector
	current atomic.Int32
}

// New creates a Controller. The reported filter starts as RED, which matches
// both lines low; nothing is written until the first Select.
func New(lines gpio.Selector) *Controller {
	return &Controller{lines: lines}
}

// Select writes the S2/S3 levels for f. Selecting the same filter again
// repeats the same writes. If the write fails, Current is unchanged.
func (c *Controller) Select(f color.Filter) error {
	s2, s3 := f.Levels()
	if err := c.lines.Set(s2, s3); err != nil {
		return fmt.Errorf("select %s filter: %w", f, err)
	}
	c.current.Store(int32(f))
	return nil
}

// Current returns the last filter successfully selected.
func (c *Controller) Current() color.Filter {
	return color.Filter(c.current.Load())
}

// Close releases the select lines.
func (c *Controller) Close() error {
	return c.lines.Close()
}
