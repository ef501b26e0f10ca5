// Package demo wires the scene manager, synchronizer and driver around one
// world and one render graph, and exposes the operations a GUI, keyboard or
// remote client invokes between frames.
package demo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/driver"
	"github.com/l1jgo/simsync/internal/frame"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/scene"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

// Demo is owned by the frame loop. None of its methods are safe for
// concurrent use.
type Demo struct {
	log      *zap.Logger
	settings *settings.Settings
	world    physics.World
	graph    *render.Graph
	registry *visual.Registry
	sync     *frame.Synchronizer
	driver   *driver.Driver
	scenes   *scene.Manager
}

// New validates s as startup settings and applies them to world.
func New(log *zap.Logger, world physics.World, s settings.Settings) (*Demo, error) {
	if err := s.ValidateStartup(); err != nil {
		return nil, fmt.Errorf("demo settings: %w", err)
	}
	mode, _ := render.ParseMode(s.RenderMode)

	d := &Demo{
		log:      log,
		settings: &s,
		world:    world,
		graph:    render.NewGraph(),
	}
	d.registry = visual.NewRegistry(d.graph)
	d.sync = frame.New(d.graph, d.registry)
	d.driver = driver.New(d.settings)
	d.scenes = scene.NewManager(log, world, d.registry, d.sync, d.settings)

	d.graph.Lighting = mode.Lighting()
	d.graph.Shadows = s.Shadows
	world.SetGravity(mgl64.Vec3{s.GX, s.GY, s.GZ})
	world.SetQuatNormalize(s.QuatNormalizeSkip, s.QuatNormalizeFast)
	world.Solver().SetIterations(s.Iterations)
	world.Solver().SetTolerance(s.Tolerance)
	world.SetProfiling(s.Profiling)
	return d, nil
}

// AddScene registers a scene and returns its index.
func (d *Demo) AddScene(title string, b scene.Builder) int {
	return d.scenes.Register(title, b)
}

func (d *Demo) Start() error { return d.scenes.Start() }

// ChangeScene switches to scene n. The next step sees zero elapsed time, so
// time spent broken or building is never caught up.
func (d *Demo) ChangeScene(n int) error {
	d.driver.ResetElapsed()
	return d.scenes.Change(n)
}

// ChangeSceneByDigit maps keys 1..9 to scenes 0..8. Digits without a scene
// are ignored.
func (d *Demo) ChangeSceneByDigit(digit int) error {
	if digit < 1 || digit > 9 || digit > d.scenes.Len() {
		return nil
	}
	return d.ChangeScene(digit - 1)
}

// Restart resets every paired body without rebuilding the scene.
func (d *Demo) Restart() { d.scenes.Restart() }

func (d *Demo) Paused() bool { return d.settings.Paused }

// SetPaused stops or resumes stepping. Any pause edit makes the next step
// see zero elapsed time.
func (d *Demo) SetPaused(p bool) {
	d.settings.Paused = p
	d.driver.ResetElapsed()
}

func (d *Demo) TogglePause() { d.SetPaused(!d.settings.Paused) }

// StepOnce takes a single fixed step and syncs visuals, paused or not.
func (d *Demo) StepOnce() {
	if d.scenes.Broken() != nil {
		return
	}
	d.driver.Single(d.world)
	d.sync.Sync(d.world, d.settings.Paused, d.settings.Toggles)
}

// Live reports whether frames should step and sync: the scene built and the
// simulation is not paused.
func (d *Demo) Live() bool {
	return !d.settings.Paused && d.scenes.Broken() == nil
}

// Advance runs one driver invocation wrapped in PreStep and PostStep events.
func (d *Demo) Advance() {
	if !d.Live() {
		return
	}
	d.scenes.Emit(event.PreStep)
	d.driver.Advance(d.world)
	d.scenes.Emit(event.PostStep)
}

// SyncVisuals copies the world into the graph and redraws overlays.
func (d *Demo) SyncVisuals() {
	if !d.Live() {
		return
	}
	d.sync.Sync(d.world, false, d.settings.Toggles)
}

// SetRenderMode swaps the material of every proxy except particles and
// triggers. Unknown modes fail with render.ErrUnknownMode and change nothing.
func (d *Demo) SetRenderMode(name string) error {
	mode, err := render.ParseMode(name)
	if err != nil {
		return err
	}
	m := mode.Material()
	d.registry.Each(func(_ physics.Body, p visual.Proxy) {
		if !p.Node.Material.Fixed() {
			p.Node.Material = m
		}
	})
	d.graph.Lighting = mode.Lighting()
	d.settings.RenderMode = string(mode)
	d.log.Debug("render mode", zap.String("mode", string(mode)))
	return nil
}

// CycleRenderMode advances to the next render mode.
func (d *Demo) CycleRenderMode() error {
	mode, err := render.ParseMode(d.settings.RenderMode)
	if err != nil {
		mode = render.ModeSolid
	}
	return d.SetRenderMode(string(mode.Next()))
}

// SetGravity sets the world gravity. NaN components keep their current value.
func (d *Demo) SetGravity(g mgl64.Vec3) {
	cur := [3]*float64{&d.settings.GX, &d.settings.GY, &d.settings.GZ}
	for i, v := range g {
		if !math.IsNaN(v) {
			*cur[i] = v
		}
	}
	d.world.SetGravity(mgl64.Vec3{d.settings.GX, d.settings.GY, d.settings.GZ})
}

// SetQuatNormalizeSkip ignores NaN and clamps to 0..50.
func (d *Demo) SetQuatNormalizeSkip(v float64) {
	if math.IsNaN(v) {
		return
	}
	d.settings.QuatNormalizeSkip = int(math.Max(0, math.Min(50, math.Round(v))))
	d.world.SetQuatNormalize(d.settings.QuatNormalizeSkip, d.settings.QuatNormalizeFast)
}

func (d *Demo) SetQuatNormalizeFast(fast bool) {
	d.settings.QuatNormalizeFast = fast
	d.world.SetQuatNormalize(d.settings.QuatNormalizeSkip, fast)
}

func (d *Demo) SetIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: iterations %d", settings.ErrInvalid, n)
	}
	d.settings.Iterations = n
	d.world.Solver().SetIterations(n)
	return nil
}

func (d *Demo) SetTolerance(t float64) error {
	if t < 0 || math.IsNaN(t) {
		return fmt.Errorf("%w: tolerance %g", settings.ErrInvalid, t)
	}
	d.settings.Tolerance = t
	d.world.Solver().SetTolerance(t)
	return nil
}

// SetSpook stores the global stiffness and damping and applies them.
func (d *Demo) SetSpook(k, damping float64) {
	d.settings.K, d.settings.D = k, damping
	d.applySpook()
}

// applySpook pushes k and d, with h = 1/stepFrequency, to every equation of
// every constraint, every contact material and the default contact material.
func (d *Demo) applySpook() {
	k, damping, h := d.settings.K, d.settings.D, d.settings.TimeStep()
	for _, c := range d.world.Constraints() {
		for _, eq := range c.Equations() {
			eq.SetSpookParams(k, damping, h)
		}
	}
	for _, m := range d.world.ContactMaterials() {
		m.SetSpook(k, damping)
	}
	d.world.DefaultContactMaterial().SetSpook(k, damping)
}

// SetStepFrequency accepts 10..600 in steps of 10.
func (d *Demo) SetStepFrequency(hz int) error {
	next := *d.settings
	next.StepFrequency = hz
	if err := next.Validate(); err != nil {
		return err
	}
	d.settings.StepFrequency = hz
	return nil
}

func (d *Demo) SetMaxSubSteps(n int) error {
	if n < 1 || n > 50 {
		return fmt.Errorf("%w: max sub steps %d not in 1..50", settings.ErrInvalid, n)
	}
	d.settings.MaxSubSteps = n
	return nil
}

func (d *Demo) SetToggles(t settings.Toggles) { d.settings.Toggles = t }

func (d *Demo) SetShadows(on bool) {
	d.settings.Shadows = on
	d.graph.Shadows = on
}

func (d *Demo) SetProfiling(on bool) {
	d.settings.Profiling = on
	d.world.SetProfiling(on)
}

// Settings returns a copy of the current settings.
func (d *Demo) Settings() settings.Settings { return *d.settings }

func (d *Demo) Graph() *render.Graph              { return d.graph }
func (d *Demo) World() physics.World              { return d.world }
func (d *Demo) Registry() *visual.Registry        { return d.registry }
func (d *Demo) Synchronizer() *frame.Synchronizer { return d.sync }
func (d *Demo) Titles() []string                  { return d.scenes.Titles() }
func (d *Demo) Current() int                      { return d.scenes.Current() }
func (d *Demo) Broken() error                     { return d.scenes.Broken() }
