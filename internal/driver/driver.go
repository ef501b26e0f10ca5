// Package driver turns variable wall-clock frame time into bounded fixed-size
// simulation steps.
package driver

import (
	"time"

	"github.com/l1jgo/simsync/internal/settings"
)

// Stepper is the stepping surface of a physics world.
type Stepper interface {
	FixedStep(dt float64)
	Step(dt, elapsed float64, maxSubSteps int)
}

// Driver is uninitialized until its first Advance, then running.
// It is not safe for concurrent use.
type Driver struct {
	settings  *settings.Settings
	nowFunc   func() time.Time
	last      time.Time
	started   bool
	forceZero bool
}

func New(s *settings.Settings) *Driver {
	return &Driver{settings: s, nowFunc: time.Now}
}

// Advance performs one driver invocation. The first call takes exactly one
// fixed step. Later calls hand the elapsed wall time (or zero after
// ResetElapsed) to w.Step. Returns the elapsed seconds passed on.
func (d *Driver) Advance(w Stepper) float64 {
	dt := d.settings.TimeStep()
	now := d.nowFunc()
	if !d.started {
		w.FixedStep(dt)
		d.last = now
		d.started = true
		d.forceZero = false
		return 0
	}
	elapsed := now.Sub(d.last).Seconds()
	if d.forceZero {
		elapsed = 0
		d.forceZero = false
	}
	w.Step(dt, elapsed, d.settings.MaxSubSteps)
	d.last = now
	return elapsed
}

// ResetElapsed makes the next Advance pass zero elapsed time. Call it on
// unpause and whenever time is reset externally.
func (d *Driver) ResetElapsed() { d.forceZero = true }

// Single takes exactly one fixed step without touching the driver clock.
func (d *Driver) Single(w Stepper) {
	w.FixedStep(d.settings.TimeStep())
}

func (d *Driver) Started() bool { return d.started }
