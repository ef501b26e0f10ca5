package demo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownSetting = errors.New("unknown setting")

var numeric = map[string]bool{
	"stepFrequency": true, "maxSubSteps": true,
	"gx": true, "gy": true, "gz": true,
	"quatNormalizeSkip": true, "iterations": true, "tolerance": true,
	"k": true, "d": true,
}

// Set edits one setting by its surface name. value is a float64, bool or
// string as decoded from JSON.
func (d *Demo) Set(key string, value any) error {
	switch key {
	case "paused":
		return withBool(key, value, d.SetPaused)
	case "quatNormalizeFast":
		return withBool(key, value, d.SetQuatNormalizeFast)
	case "shadows":
		return withBool(key, value, d.SetShadows)
	case "profiling":
		return withBool(key, value, d.SetProfiling)
	case "contacts", "cm2contact", "normals", "constraints", "axes", "aabbs":
		return withBool(key, value, func(on bool) { d.setToggle(key, on) })
	case "rendermode":
		s, ok := value.(string)
		if !ok {
			return typeError(key, "string", value)
		}
		return d.SetRenderMode(s)
	}

	if !numeric[key] {
		return fmt.Errorf("set %q: %w", key, ErrUnknownSetting)
	}
	v, ok := value.(float64)
	if !ok {
		return typeError(key, "number", value)
	}
	nan := mgl64.Vec3{math.NaN(), math.NaN(), math.NaN()}
	switch key {
	case "stepFrequency":
		return d.SetStepFrequency(int(v))
	case "maxSubSteps":
		return d.SetMaxSubSteps(int(v))
	case "gx":
		nan[0] = v
		d.SetGravity(nan)
	case "gy":
		nan[1] = v
		d.SetGravity(nan)
	case "gz":
		nan[2] = v
		d.SetGravity(nan)
	case "quatNormalizeSkip":
		d.SetQuatNormalizeSkip(v)
	case "iterations":
		return d.SetIterations(int(v))
	case "tolerance":
		return d.SetTolerance(v)
	case "k":
		d.SetSpook(v, d.settings.D)
	case "d":
		d.SetSpook(d.settings.K, v)
	}
	return nil
}

func (d *Demo) setToggle(key string, on bool) {
	t := &d.settings.Toggles
	switch key {
	case "contacts":
		t.Contacts = on
	case "cm2contact":
		t.CM2Contact = on
	case "normals":
		t.Normals = on
	case "constraints":
		t.Constraints = on
	case "axes":
		t.Axes = on
	case "aabbs":
		t.AABBs = on
	}
}

func withBool(key string, value any, fn func(bool)) error {
	b, ok := value.(bool)
	if !ok {
		return typeError(key, "bool", value)
	}
	fn(b)
	return nil
}

func typeError(key, want string, got any) error {
	return fmt.Errorf("set %q: want %s, got %T", key, want, got)
}
