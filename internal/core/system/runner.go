package system

import "time"

// Runner drives one frame through the phases in order. Systems of the same
// phase run in the order they were registered.
type Runner struct {
	phases [phaseCount][]System
	hold   func(Phase) bool
	frames uint64
}

func NewRunner() *Runner { return &Runner{} }

// Register panics on a phase outside Input..Publish.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic("system: unknown phase " + p.String())
	}
	r.phases[p] = append(r.phases[p], s)
}

// Hold sets a gate consulted once per phase per frame. Phases for which it
// returns true are skipped that frame. Input and Publish are never held.
func (r *Runner) Hold(fn func(Phase) bool) { r.hold = fn }

// Tick runs one frame. dt is the wall time since the previous frame.
func (r *Runner) Tick(dt time.Duration) {
	for p := PhaseInput; p < phaseCount; p++ {
		if p != PhaseInput && p != PhasePublish && r.hold != nil && r.hold(p) {
			continue
		}
		for _, s := range r.phases[p] {
			s.Update(dt)
		}
	}
	r.frames++
}

// Len returns how many systems are registered for p.
func (r *Runner) Len(p Phase) int {
	if p < 0 || p >= phaseCount {
		return 0
	}
	return len(r.phases[p])
}

// Frames returns how many frames have completed.
func (r *Runner) Frames() uint64 { return r.frames }
