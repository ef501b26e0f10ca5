package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

// Context is what a builder sees while its scene is being built.
type Context struct {
	m *Manager
}

func (c *Context) World() physics.World         { return c.m.world }
func (c *Context) Settings() *settings.Settings { return c.m.settings }
func (c *Context) Log() *zap.Logger             { return c.m.log }
func (c *Context) Registry() *visual.Registry   { return c.m.registry }

func (c *Context) mode() render.Mode {
	mode, err := render.ParseMode(c.m.settings.RenderMode)
	if err != nil {
		return render.ModeSolid
	}
	return mode
}

// AddVisual pairs b with a mesh of its own. Particles are painted red,
// triggers green, everything else with the current render mode's material.
func (c *Context) AddVisual(b physics.Body) error {
	if b == nil {
		return fmt.Errorf("add visual: %w: nil body", visual.ErrInvalidArgument)
	}
	return c.m.registry.Pair(b, render.MeshFor(b, render.MaterialFor(b, c.mode())))
}

// AddVisuals calls AddVisual for each body, stopping at the first error.
func (c *Context) AddVisuals(bodies []physics.Body) error {
	for _, b := range bodies {
		if err := c.AddVisual(b); err != nil {
			return err
		}
	}
	return nil
}

// AddVisualsInstanced renders bodies, which must share type and shapes,
// through one instanced buffer.
func (c *Context) AddVisualsInstanced(bodies []physics.Body) error {
	if len(bodies) == 0 || bodies[0] == nil {
		return fmt.Errorf("add visuals instanced: %w: no bodies", visual.ErrInvalidArgument)
	}
	first := bodies[0]
	n := render.NewInstanced(fmt.Sprintf("instanced-%d", first.ID().Index()), first.Shapes(), render.MaterialFor(first, c.mode()), len(bodies))
	return c.m.registry.PairInstanced(bodies, n)
}

// RemoveVisual unpairs b and removes its mesh. The body stays in the world.
func (c *Context) RemoveVisual(b physics.Body) error {
	return c.m.registry.Unpair(b.ID())
}

// On subscribes fn for the lifetime of this scene.
func (c *Context) On(k event.Kind, fn event.Handler) (event.Subscription, error) {
	return c.m.events.Subscribe(k, fn)
}

func (c *Context) Off(s event.Subscription) bool { return c.m.events.Unsubscribe(s) }
