package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/physics/physicstest"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

type overlays struct{ clears int }

func (o *overlays) ClearDebug() { o.clears++ }

type fixture struct {
	m        *Manager
	world    *physicstest.World
	graph    *render.Graph
	overlays *overlays
	settings *settings.Settings
}

func newFixture() *fixture {
	s := settings.Defaults()
	g := render.NewGraph()
	w := physicstest.NewWorld()
	o := &overlays{}
	return &fixture{
		m:        NewManager(zap.NewNop(), w, visual.NewRegistry(g), o, &s),
		world:    w,
		graph:    g,
		overlays: o,
		settings: &s,
	}
}

// ballScene adds n visible balls and one constraint.
func ballScene(n int) Builder {
	return func(ctx *Context) error {
		var first physics.Body
		for i := 0; i < n; i++ {
			b, err := ctx.World().AddBody(physics.BodyDesc{Mass: 1, Position: mgl64.Vec3{float64(i), 0, 0}})
			if err != nil {
				return err
			}
			if err := ctx.AddVisual(b); err != nil {
				return err
			}
			if first == nil {
				first = b
			}
		}
		_, err := ctx.World().AddDistanceConstraint(physics.DistanceDesc{BodyA: first})
		return err
	}
}

func TestListenerDroppedOnChange(t *testing.T) {
	f := newFixture()
	var fired []event.Kind
	f.m.Register("A", ballScene(1))
	f.m.Register("B", func(ctx *Context) error {
		for _, k := range []event.Kind{event.Destroy, event.PreStep, event.PostStep} {
			if _, err := ctx.On(k, func(ev event.Event) { fired = append(fired, ev.Kind) }); err != nil {
				return err
			}
		}
		return nil
	})
	f.m.Register("C", ballScene(2))

	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := f.m.Change(1); err != nil {
		t.Fatal(err)
	}
	f.m.Emit(event.PreStep)
	if len(fired) != 1 {
		t.Fatalf("fired = %v before change", fired)
	}
	if err := f.m.Change(0); err != nil {
		t.Fatal(err)
	}
	if len(fired) != 2 || fired[1] != event.Destroy {
		t.Fatalf("fired = %v, want preStep then destroy", fired)
	}
	f.m.Emit(event.PreStep)
	f.m.Emit(event.PostStep)
	f.m.Emit(event.Destroy)
	if len(fired) != 2 {
		t.Fatalf("B listener fired after change(0): %v", fired)
	}
	if f.m.Listeners() != 0 {
		t.Fatalf("%d listeners survived", f.m.Listeners())
	}
}

func TestChangeTearsDownEverything(t *testing.T) {
	f := newFixture()
	f.m.Register("A", ballScene(3))
	f.m.Register("B", ballScene(2))
	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	if f.m.Registry().Len() != 3 || len(f.world.Constraints()) != 1 {
		t.Fatal("scene A not built")
	}

	var seenOnDestroy int
	f.m.events.Subscribe(event.Destroy, func(event.Event) { seenOnDestroy = f.m.Registry().Len() })
	f.settings.Paused = true
	clears := f.overlays.clears

	if err := f.m.Change(1); err != nil {
		t.Fatal(err)
	}
	if seenOnDestroy != 3 {
		t.Fatalf("destroy saw %d visuals, want the outgoing scene intact", seenOnDestroy)
	}
	if f.settings.Paused {
		t.Fatal("pause not cleared")
	}
	if f.m.Registry().Len() != 2 || len(f.world.Bodies()) != 2 || f.graph.Len() != 2 {
		t.Fatalf("after change: %d visuals, %d bodies, %d nodes", f.m.Registry().Len(), len(f.world.Bodies()), f.graph.Len())
	}
	if len(f.world.Constraints()) != 1 {
		t.Fatalf("constraints = %d, want only B's", len(f.world.Constraints()))
	}
	if f.overlays.clears != clears+1 {
		t.Fatal("overlays not cleared")
	}
	if f.m.Current() != 1 {
		t.Fatalf("current = %d", f.m.Current())
	}
}

func TestChangeRemovesBodiesWithoutVisuals(t *testing.T) {
	f := newFixture()
	f.m.Register("hidden", func(ctx *Context) error {
		for i := 0; i < 4; i++ {
			if _, err := ctx.World().AddBody(physics.BodyDesc{Mass: 1, Position: mgl64.Vec3{0, float64(i), 0}}); err != nil {
				return err
			}
		}
		return nil
	})
	f.m.Register("B", ballScene(2))
	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	if len(f.world.Bodies()) != 4 || f.m.Registry().Len() != 0 {
		t.Fatalf("built %d bodies, %d visuals", len(f.world.Bodies()), f.m.Registry().Len())
	}

	if err := f.m.Change(1); err != nil {
		t.Fatal(err)
	}
	if len(f.world.Bodies()) != 2 {
		t.Fatalf("bodies = %d, want only B's", len(f.world.Bodies()))
	}
	if err := f.m.Change(0); err != nil {
		t.Fatal(err)
	}
	if len(f.world.Bodies()) != 4 || f.graph.Len() != 0 {
		t.Fatalf("after rebuild: %d bodies, %d nodes", len(f.world.Bodies()), f.graph.Len())
	}
}

func TestChangeReadsBackWorldSettings(t *testing.T) {
	f := newFixture()
	f.m.Register("A", func(ctx *Context) error {
		w := ctx.World()
		w.SetGravity(mgl64.Vec3{0, -9.82, 0})
		w.Solver().SetIterations(17)
		w.SetQuatNormalize(5, false)
		return nil
	})
	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	s := f.settings
	if s.GY != -9.82 || s.GX != 0 || s.Iterations != 17 || s.QuatNormalizeSkip != 5 || s.QuatNormalizeFast {
		t.Fatalf("settings not read back: %+v", s)
	}
}

func TestUnknownSceneChangesNothing(t *testing.T) {
	f := newFixture()
	if err := f.m.Start(); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("Start with no scenes: %v", err)
	}
	f.m.Register("A", ballScene(1))
	f.m.Start()
	for _, n := range []int{-1, 1, 9} {
		if err := f.m.Change(n); !errors.Is(err, ErrUnknownScene) {
			t.Fatalf("Change(%d) = %v", n, err)
		}
	}
	if f.m.Registry().Len() != 1 || f.m.Current() != 0 {
		t.Fatal("failed change mutated the active scene")
	}
}

func TestBuildFailureLeavesManagerBroken(t *testing.T) {
	f := newFixture()
	boom := errors.New("boom")
	f.m.Register("ok", ballScene(1))
	f.m.Register("fails", func(ctx *Context) error { return boom })
	f.m.Register("panics", func(ctx *Context) error { panic("bad scene") })
	f.m.Start()

	err := f.m.Change(1)
	if !errors.Is(err, ErrBuildFailed) || !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if f.m.Broken() == nil || f.m.Current() != 1 {
		t.Fatal("manager not reported broken")
	}
	if err := f.m.Change(2); !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("panicking builder: %v", err)
	}
	if err := f.m.Change(0); err != nil || f.m.Broken() != nil {
		t.Fatalf("recovery change: %v, broken=%v", err, f.m.Broken())
	}
}

func TestInvalidVisualAbortsBuild(t *testing.T) {
	f := newFixture()
	f.m.Register("mixed", func(ctx *Context) error {
		a, _ := ctx.World().AddBody(physics.BodyDesc{Mass: 1})
		b, _ := ctx.World().AddBody(physics.BodyDesc{Type: physics.Static})
		return ctx.AddVisualsInstanced([]physics.Body{a, b})
	})
	err := f.m.Start()
	if !errors.Is(err, ErrBuildFailed) || !errors.Is(err, visual.ErrInvalidArgument) {
		t.Fatalf("error = %v", err)
	}
	if f.m.Registry().Len() != 0 {
		t.Fatal("heterogeneous group was paired")
	}
}

func TestMaterialSelection(t *testing.T) {
	f := newFixture()
	f.settings.RenderMode = string(render.ModeWireframe)
	var plain, particle, trigger *physicstest.Body
	f.m.Register("A", func(ctx *Context) error {
		plain = physicstest.NewBody(mgl64.Vec3{})
		particle = physicstest.NewBody(mgl64.Vec3{})
		particle.ShapeList = []physics.Shape{{Kind: physics.ShapeParticle}}
		trigger = physicstest.NewBody(mgl64.Vec3{})
		trigger.TriggerFlag = true
		return ctx.AddVisuals([]physics.Body{plain, particle, trigger})
	})
	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	r := f.m.Registry()
	want := []render.Material{render.WireframeMaterial, render.ParticleMaterial, render.TriggerMaterial}
	for i, m := range want {
		if got := r.Proxy(i).Node.Material; got != m {
			t.Errorf("proxy %d material = %s, want %s", i, got.Name, m.Name)
		}
	}
}

func TestInstancedMaterialSelection(t *testing.T) {
	f := newFixture()
	f.settings.RenderMode = string(render.ModeWireframe)
	f.m.Register("A", func(ctx *Context) error {
		var triggers, plain []physics.Body
		for i := 0; i < 2; i++ {
			tb := physicstest.NewBody(mgl64.Vec3{float64(i), 0, 0})
			tb.TriggerFlag = true
			triggers = append(triggers, tb)
			plain = append(plain, physicstest.NewBody(mgl64.Vec3{float64(i), 1, 0}))
		}
		if err := ctx.AddVisualsInstanced(triggers); err != nil {
			return err
		}
		return ctx.AddVisualsInstanced(plain)
	})
	if err := f.m.Start(); err != nil {
		t.Fatal(err)
	}
	r := f.m.Registry()
	if got := r.Proxy(0).Node.Material; got != render.TriggerMaterial {
		t.Errorf("trigger group material = %s", got.Name)
	}
	if got := r.Proxy(2).Node.Material; got != render.WireframeMaterial {
		t.Errorf("plain group material = %s", got.Name)
	}
}

func TestRestart(t *testing.T) {
	f := newFixture()
	var b *physicstest.Body
	f.m.Register("A", func(ctx *Context) error {
		b = physicstest.NewBody(mgl64.Vec3{})
		return ctx.AddVisual(b)
	})
	f.m.Start()
	if n := f.m.Restart(); n != 1 || b.Restarts != 1 {
		t.Fatalf("restarted %d bodies", n)
	}
}
