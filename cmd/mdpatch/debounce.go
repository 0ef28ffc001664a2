package main

import "time"

// debouncer counts change events and fires once no new event has arrived
// for the window. It is driven from a single select loop.
type debouncer struct {
	window  time.Duration
	pending int
	timer   *time.Timer
	timerCh <-chan time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &debouncer{window: window}
}

// add records an event and (re)starts the window timer.
func (d *debouncer) add() {
	d.pending++
	d.stop()
	d.timer = time.NewTimer(d.window)
	d.timerCh = d.timer.C
}

// C returns the channel that fires when the window expires. It is nil,
// and blocks forever, while no event is pending.
func (d *debouncer) C() <-chan time.Time {
	return d.timerCh
}

// take returns the number of events since the last take and resets.
func (d *debouncer) take() int {
	n := d.pending
	d.pending = 0
	d.stop()
	d.timer = nil
	d.timerCh = nil
	return n
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
