package aggregate

import (
	"context"
	"time"
)

// debouncer owns the timer and cancellation token of one concern. All
// methods are called with the manager lock held.
type debouncer struct {
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
}

// restart cancels the previous cycle and schedules fire after delay. fire
// receives a context that is cancelled when the cycle is superseded, and the
// generation it belongs to.
func (d *debouncer) restart(parent context.Context, delay time.Duration, fire func(ctx context.Context, gen uint64)) {
	d.stop()
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() { fire(ctx, gen) })
}

// stop cancels any pending or in-flight cycle.
func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gen++
}

// current reports whether gen is still the live cycle.
func (d *debouncer) current(gen uint64) bool {
	return d.gen == gen
}
