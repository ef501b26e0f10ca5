// Package scene registers demo scenes and switches between them.
//
// A scene change runs to completion before the next frame: the outgoing
// scene is told to clean up, loses its listeners, bodies, proxies and
// constraints, and only then is the incoming builder invoked.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

var (
	ErrUnknownScene = errors.New("unknown scene")
	ErrBuildFailed  = errors.New("scene build failed")
)

// Builder populates the world through ctx. A returned error (or a panic)
// leaves the manager broken.
type Builder func(ctx *Context) error

// Scene is a registered builder with a display title.
type Scene struct {
	Title string
	Build Builder
}

// Overlays is the debug overlay set the manager resets on every change.
type Overlays interface {
	ClearDebug()
}

// Manager owns the settings surface and the active scene. It is driven by
// the frame loop only.
type Manager struct {
	log      *zap.Logger
	world    physics.World
	registry *visual.Registry
	events   *event.Registry
	overlays Overlays
	settings *settings.Settings

	scenes  []Scene
	current int
	broken  error
}

func NewManager(log *zap.Logger, world physics.World, registry *visual.Registry, overlays Overlays, s *settings.Settings) *Manager {
	return &Manager{
		log:      log,
		world:    world,
		registry: registry,
		events:   event.NewRegistry(),
		overlays: overlays,
		settings: s,
		current:  -1,
	}
}

// Register stores a builder and returns its index.
func (m *Manager) Register(title string, b Builder) int {
	m.scenes = append(m.scenes, Scene{Title: title, Build: b})
	return len(m.scenes) - 1
}

// Start activates scene 0. Nothing exists yet, so there is no teardown.
func (m *Manager) Start() error {
	if len(m.scenes) == 0 {
		return fmt.Errorf("start: %w: no scenes registered", ErrUnknownScene)
	}
	return m.activate(0)
}

// Change tears down the active scene and builds scene n. An out-of-range n
// fails with ErrUnknownScene and changes nothing.
func (m *Manager) Change(n int) error {
	if n < 0 || n >= len(m.scenes) {
		return fmt.Errorf("change to %d: %w", n, ErrUnknownScene)
	}
	m.events.Emit(event.Event{Kind: event.Destroy, Scene: m.current})
	m.events.UnsubscribeAll()
	m.settings.Paused = false
	for _, b := range m.registry.UnpairAll() {
		m.world.RemoveBody(b)
	}
	// bodies added without a visual; the world may hand out its live slice
	for _, b := range slices.Clone(m.world.Bodies()) {
		m.world.RemoveBody(b)
	}
	for cs := m.world.Constraints(); len(cs) > 0; cs = m.world.Constraints() {
		m.world.RemoveConstraint(cs[0])
	}
	return m.activate(n)
}

// activate runs the builder of scene n, reads the world's solver defaults
// back into the settings and hides every overlay.
func (m *Manager) activate(n int) error {
	sc := m.scenes[n]
	m.current = n
	err := m.build(sc)
	if err != nil {
		m.broken = fmt.Errorf("%w: scene %d %q: %w", ErrBuildFailed, n, sc.Title, err)
		m.overlays.ClearDebug()
		m.log.Error("scene build failed",
			zap.Int("scene", n),
			zap.String("title", sc.Title),
			zap.Error(err),
		)
		return m.broken
	}
	m.broken = nil

	m.settings.Iterations = m.world.Solver().Iterations()
	g := m.world.Gravity()
	// +0 turns negative zero into zero
	m.settings.GX, m.settings.GY, m.settings.GZ = g.X()+0, g.Y()+0, g.Z()+0
	m.settings.QuatNormalizeSkip = m.world.QuatNormalizeSkip()
	m.settings.QuatNormalizeFast = m.world.QuatNormalizeFast()

	m.overlays.ClearDebug()
	m.log.Info("scene active",
		zap.Int("scene", n),
		zap.String("title", sc.Title),
		zap.Int("bodies", len(m.world.Bodies())),
		zap.Int("visuals", m.registry.Len()),
		zap.Int("constraints", len(m.world.Constraints())),
	)
	return nil
}

func (m *Manager) build(sc Scene) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sc.Build(&Context{m: m})
}

// Restart returns every paired body to its initial state without rebuilding.
// Returns how many bodies were reset.
func (m *Manager) Restart() int {
	n := 0
	m.registry.Each(func(b physics.Body, _ visual.Proxy) {
		if r, ok := b.(physics.Restartable); ok {
			r.Restart()
			n++
		}
	})
	return n
}

// Emit delivers ev to the active scene's listeners.
func (m *Manager) Emit(k event.Kind) {
	m.events.Emit(event.Event{Kind: k, Scene: m.current})
}

// Broken returns the build error of the active scene, or nil.
func (m *Manager) Broken() error { return m.broken }

// Current returns the active scene index, or -1 before Start.
func (m *Manager) Current() int { return m.current }

func (m *Manager) Len() int { return len(m.scenes) }

// Titles lists scene titles in registration order.
func (m *Manager) Titles() []string {
	out := make([]string, len(m.scenes))
	for i, s := range m.scenes {
		out[i] = s.Title
	}
	return out
}

func (m *Manager) Settings() *settings.Settings { return m.settings }
func (m *Manager) World() physics.World         { return m.world }
func (m *Manager) Registry() *visual.Registry   { return m.registry }
func (m *Manager) Listeners() int               { return m.events.Len() }
