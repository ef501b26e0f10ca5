package system

import (
	"strconv"
	"time"
)

// Phase orders the work of one frame.
type Phase int

const (
	PhaseInput    Phase = iota // 0: drain queued control commands
	PhaseSimulate              // 1: fixed-step physics driver
	PhaseSync                  // 2: body → proxy transforms, debug overlays
	PhasePersist               // 3: profile sample flush
	PhasePublish               // 4: hand the scene graph to the presenter

	phaseCount
)

var phaseNames = [phaseCount]string{"input", "simulate", "sync", "persist", "publish"}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
	return phaseNames[p]
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
