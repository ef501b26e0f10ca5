package render

import (
	"errors"
	"fmt"

	"github.com/l1jgo/simsync/internal/physics"
)

type Material struct {
	Name      string
	Color     uint32
	Wireframe bool
}

var (
	SolidMaterial     = Material{Name: "solid", Color: 0xdddddd}
	WireframeMaterial = Material{Name: "wireframe", Color: 0xffffff, Wireframe: true}
	ParticleMaterial  = Material{Name: "particle", Color: 0xff0000}
	TriggerMaterial   = Material{Name: "trigger", Color: 0x00ff00, Wireframe: true}
)

// Overlay colors.
const (
	ContactColor    uint32 = 0xffffff
	LineColor       uint32 = 0xff0000
	NormalColor     uint32 = 0x00ff00
	BoundsColor     uint32 = 0xdddddd
	ConstraintColor uint32 = 0xff0000
)

var ErrUnknownMode = errors.New("unknown render mode")

type Mode string

const (
	ModeSolid     Mode = "solid"
	ModeWireframe Mode = "wireframe"
)

// Modes lists the render modes in cycling order.
var Modes = []Mode{ModeSolid, ModeWireframe}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	for i, mm := range Modes {
		if mm == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Modes[0]
}

func (m Mode) Material() Material {
	if m == ModeWireframe {
		return WireframeMaterial
	}
	return SolidMaterial
}

// Lighting is the global light setup a mode implies.
type Lighting struct {
	SpotIntensity float64
	Ambient       uint32
}

func (m Mode) Lighting() Lighting {
	if m == ModeWireframe {
		return Lighting{SpotIntensity: 0, Ambient: 0xffffff}
	}
	return Lighting{SpotIntensity: 1, Ambient: 0x222222}
}

// MaterialFor picks the material a new proxy of b gets under mode. Particle
// and trigger bodies keep their own materials in every mode.
func MaterialFor(b physics.Body, mode Mode) Material {
	switch {
	case physics.IsParticle(b):
		return ParticleMaterial
	case physics.IsTrigger(b):
		return TriggerMaterial
	}
	return mode.Material()
}

// Fixed reports whether m is one of the materials render modes never replace.
func (m Material) Fixed() bool {
	return m == ParticleMaterial || m == TriggerMaterial
}
