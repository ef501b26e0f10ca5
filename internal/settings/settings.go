// Package settings holds the live configuration surface of the demo: every
// value a GUI or control client can read or edit between frames.
package settings

import (
	"errors"
	"fmt"

	"github.com/l1jgo/simsync/internal/render"
)

var ErrInvalid = errors.New("invalid settings")

// Step frequency bounds for runtime edits.
const (
	MinStepFrequency  = 10
	MaxStepFrequency  = 600
	StepFrequencyStep = 10
)

// Toggles selects which debug overlays are drawn.
type Toggles struct {
	Contacts    bool `toml:"contacts" json:"contacts"`
	CM2Contact  bool `toml:"cm2contact" json:"cm2contact"`
	Normals     bool `toml:"normals" json:"normals"`
	Constraints bool `toml:"constraints" json:"constraints"`
	Axes        bool `toml:"axes" json:"axes"`
	AABBs       bool `toml:"aabbs" json:"aabbs"`
}

// Settings is owned by the scene manager. Scene changes are the only place it
// is read back from the world.
type Settings struct {
	Paused            bool    `toml:"paused" json:"paused"`
	StepFrequency     int     `toml:"step_frequency" json:"stepFrequency"`
	MaxSubSteps       int     `toml:"max_sub_steps" json:"maxSubSteps"`
	GX                float64 `toml:"gx" json:"gx"`
	GY                float64 `toml:"gy" json:"gy"`
	GZ                float64 `toml:"gz" json:"gz"`
	QuatNormalizeSkip int     `toml:"quat_normalize_skip" json:"quatNormalizeSkip"`
	QuatNormalizeFast bool    `toml:"quat_normalize_fast" json:"quatNormalizeFast"`
	Iterations        int     `toml:"iterations" json:"iterations"`
	Tolerance         float64 `toml:"tolerance" json:"tolerance"`
	K                 float64 `toml:"k" json:"k"`
	D                 float64 `toml:"d" json:"d"`
	RenderMode        string  `toml:"render_mode" json:"rendermode"`
	Shadows           bool    `toml:"shadows" json:"shadows"`
	Profiling         bool    `toml:"profiling" json:"profiling"`
	Toggles
}

func Defaults() Settings {
	return Settings{
		StepFrequency:     60,
		MaxSubSteps:       20,
		QuatNormalizeSkip: 2,
		QuatNormalizeFast: true,
		Iterations:        3,
		Tolerance:         1e-4,
		K:                 1e6,
		D:                 3,
		RenderMode:        string(render.ModeSolid),
		Shadows:           true,
	}
}

// TimeStep is the fixed step duration in seconds.
func (s *Settings) TimeStep() float64 {
	return 1 / float64(s.StepFrequency)
}

// Validate checks values a runtime edit may set.
func (s *Settings) Validate() error {
	if s.StepFrequency < MinStepFrequency || s.StepFrequency > MaxStepFrequency || s.StepFrequency%StepFrequencyStep != 0 {
		return fmt.Errorf("%w: step frequency %d not in %d..%d step %d",
			ErrInvalid, s.StepFrequency, MinStepFrequency, MaxStepFrequency, StepFrequencyStep)
	}
	if s.MaxSubSteps < 1 {
		return fmt.Errorf("%w: max sub steps %d", ErrInvalid, s.MaxSubSteps)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("%w: iterations %d", ErrInvalid, s.Iterations)
	}
	if s.QuatNormalizeSkip < 0 {
		return fmt.Errorf("%w: quat normalize skip %d", ErrInvalid, s.QuatNormalizeSkip)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g", ErrInvalid, s.Tolerance)
	}
	if _, err := render.ParseMode(s.RenderMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ValidateStartup additionally requires the step frequency to be a multiple of 60.
func (s *Settings) ValidateStartup() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.StepFrequency%60 != 0 {
		return fmt.Errorf("%w: step frequency %d must be a multiple of 60", ErrInvalid, s.StepFrequency)
	}
	return nil
}
