// Package debounce collapses bursts of triggers into a single trailing call.
package debounce

import (
	"sync"
	"time"

	"github.com/hpungsan/voxnote/internal/clock"
)

// DefaultDelay is the quiet period used for note persistence.
const DefaultDelay = 500 * time.Millisecond

// Debouncer runs fn once, delay after the most recent Trigger.
// Each Trigger restarts the delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	clock clock.Clock
	fn    func()
	timer clock.Timer
	gen   uint64
}

// New returns a trailing-edge debouncer. A nil clock uses the system clock.
func New(delay time.Duration, clk clock.Clock, fn func()) *Debouncer {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Debouncer{delay: delay, clock: clk, fn: fn}
}

// Trigger schedules fn, cancelling any call still pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Flush runs fn immediately if a call is pending and reports whether it did.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()
	d.fn()
	return true
}

// Cancel drops a pending call without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
