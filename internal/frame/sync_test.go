package frame

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/debugdraw"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/physics/physicstest"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

type fixture struct {
	graph *render.Graph
	reg   *visual.Registry
	sync  *Synchronizer
	world *physicstest.World
}

func newFixture() *fixture {
	g := render.NewGraph()
	reg := visual.NewRegistry(g)
	return &fixture{graph: g, reg: reg, sync: New(g, reg), world: physicstest.NewWorld()}
}

func (f *fixture) add(b *physicstest.Body) *render.Node {
	n := render.MeshFor(b, render.SolidMaterial)
	if err := f.reg.Pair(b, n); err != nil {
		panic(err)
	}
	f.world.Add(b)
	return n
}

func (f *fixture) visible(name string) []*render.Node {
	var out []*render.Node
	f.graph.Each(func(n *render.Node) {
		if n.Name == name {
			out = append(out, n)
		}
	})
	return out
}

var all = settings.Toggles{Contacts: true, CM2Contact: true, Normals: true, Constraints: true, Axes: true, AABBs: true}

func TestInterpolatedUnlessPaused(t *testing.T) {
	f := newFixture()
	b := physicstest.NewBody(mgl64.Vec3{9, 9, 9})
	b.InterpPos = mgl64.Vec3{1, 2, 3}
	n := f.add(b)

	f.sync.Sync(f.world, false, settings.Toggles{})
	if n.Position != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("unpaused position = %v, want interpolated", n.Position)
	}
	f.sync.Sync(f.world, true, settings.Toggles{})
	if n.Position != (mgl64.Vec3{9, 9, 9}) {
		t.Fatalf("paused position = %v, want raw", n.Position)
	}
}

func TestInstancedMarkedDirtyOncePerFrame(t *testing.T) {
	f := newFixture()
	bodies := []physics.Body{
		physicstest.NewBody(mgl64.Vec3{0, 1, 0}),
		physicstest.NewBody(mgl64.Vec3{0, 2, 0}),
		physicstest.NewBody(mgl64.Vec3{0, 3, 0}),
	}
	n := render.NewInstanced("spheres", bodies[0].Shapes(), render.SolidMaterial, len(bodies))
	if err := f.reg.PairInstanced(bodies, n); err != nil {
		t.Fatal(err)
	}

	f.sync.Sync(f.world, false, settings.Toggles{})
	if n.DirtyMarks() != 1 || !n.InstancesDirty() {
		t.Fatalf("dirty marks = %d after one frame", n.DirtyMarks())
	}
	for i := range bodies {
		m := n.MatrixAt(i)
		if m.Col(3) != (mgl64.Vec4{0, float64(i + 1), 0, 1}) {
			t.Fatalf("slot %d translation = %v", i, m.Col(3))
		}
	}
	f.sync.Sync(f.world, false, settings.Toggles{})
	if n.DirtyMarks() != 2 {
		t.Fatalf("dirty marks = %d after two frames", n.DirtyMarks())
	}
}

func TestContactOverlays(t *testing.T) {
	f := newFixture()
	a := physicstest.NewBody(mgl64.Vec3{0, 1, 0})
	b := physicstest.NewBody(mgl64.Vec3{0, -1, 0})
	f.add(a)
	f.add(b)
	f.world.ContactList = []physics.Contact{{
		BodyA: a, BodyB: b,
		RA:     mgl64.Vec3{0, -1, 0},
		RB:     mgl64.Vec3{},
		Normal: mgl64.Vec3{0, 1, 0},
	}}

	f.sync.Sync(f.world, false, settings.Toggles{Contacts: true, CM2Contact: true, Normals: true})

	points := f.visible(PoolContacts)
	if len(points) != 2 {
		t.Fatalf("contact points = %d, want 2", len(points))
	}
	if points[0].Position != (mgl64.Vec3{0, 0, 0}) || points[1].Position != (mgl64.Vec3{0, -1, 0}) {
		t.Fatalf("point positions %v %v", points[0].Position, points[1].Position)
	}
	lines := f.visible(PoolCM2Contact)
	if len(lines) != 2 {
		t.Fatalf("cm2contact lines = %d, want 2", len(lines))
	}
	eps := debugdraw.Epsilon
	if lines[1].Scale != (mgl64.Vec3{eps, eps, eps}) {
		t.Fatalf("zero contact vector drawn with scale %v", lines[1].Scale)
	}
	normals := f.visible(PoolNormals)
	if len(normals) != 1 || normals[0].Position != (mgl64.Vec3{0, 0, 0}) {
		t.Fatalf("normals = %d", len(normals))
	}
	if normals[0].Scale != (mgl64.Vec3{eps, 1, eps}) {
		t.Fatalf("normal scale = %v", normals[0].Scale)
	}

	f.world.ContactList = nil
	f.sync.Sync(f.world, false, settings.Toggles{Contacts: true, CM2Contact: true, Normals: true})
	if len(f.visible(PoolContacts))+len(f.visible(PoolCM2Contact))+len(f.visible(PoolNormals)) != 0 {
		t.Fatal("stale overlays visible after contacts vanished")
	}
}

func TestConstraintOverlay(t *testing.T) {
	f := newFixture()
	a := physicstest.NewBody(mgl64.Vec3{0, 0, 0})
	b := physicstest.NewBody(mgl64.Vec3{3, 0, 0})
	f.add(a)
	f.add(b)
	if _, err := f.world.AddDistanceConstraint(physics.DistanceDesc{BodyA: a, BodyB: b}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.world.AddPointToPointConstraint(physics.PointToPointDesc{BodyA: a, PivotA: mgl64.Vec3{1, 0, 0}, BodyB: b, PivotB: mgl64.Vec3{-1, 0, 0}}); err != nil {
		t.Fatal(err)
	}

	f.sync.Sync(f.world, false, settings.Toggles{Constraints: true})
	lines := f.visible(PoolConstraints)
	if len(lines) != 4 {
		t.Fatalf("constraint lines = %d, want 1 distance + 3 point-to-point", len(lines))
	}
	if lines[0].Scale != (mgl64.Vec3{3, debugdraw.Epsilon, debugdraw.Epsilon}) {
		t.Fatalf("distance line scale = %v", lines[0].Scale)
	}

	f.sync.Sync(f.world, false, settings.Toggles{})
	if len(f.visible(PoolConstraints)) != 0 {
		t.Fatal("constraint lines visible with toggle off")
	}
}

func TestAxesAndBounds(t *testing.T) {
	f := newFixture()
	a := physicstest.NewBody(mgl64.Vec3{1, 1, 1})
	a.BoxStale = true
	plane := physicstest.NewBody(mgl64.Vec3{})
	plane.Box = physics.AABB{
		Lower: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
		Upper: mgl64.Vec3{math.Inf(1), 0, math.Inf(1)},
	}
	f.add(a)
	f.add(plane)

	f.sync.Sync(f.world, false, settings.Toggles{Axes: true, AABBs: true})

	if got := len(f.visible(PoolAxes)); got != 2 {
		t.Fatalf("axes = %d, want one per body", got)
	}
	boxes := f.visible(PoolAABBs)
	if len(boxes) != 1 {
		t.Fatalf("boxes = %d, want infinite box skipped", len(boxes))
	}
	if boxes[0].Position != (mgl64.Vec3{1, 1, 1}) || boxes[0].Scale != (mgl64.Vec3{2, 2, 2}) {
		t.Fatalf("box at %v size %v", boxes[0].Position, boxes[0].Scale)
	}
	if a.BoxUpdates != 1 || a.BoxStale {
		t.Fatal("stale AABB not refreshed before drawing")
	}
}

func TestClearDebugHidesEverything(t *testing.T) {
	f := newFixture()
	a := physicstest.NewBody(mgl64.Vec3{})
	f.add(a)
	f.world.ContactList = []physics.Contact{{BodyA: a, BodyB: a, Normal: mgl64.Vec3{0, 1, 0}}}
	f.sync.Sync(f.world, false, all)
	before := f.graph.Len()

	f.sync.ClearDebug()
	if f.graph.Len() != 1 {
		t.Fatalf("graph has %d nodes after clear, want only the body mesh (had %d)", f.graph.Len(), before)
	}
	for _, p := range f.sync.Pools() {
		if p.Active() != 0 {
			t.Fatalf("pool %s still has %d active nodes", p.Name(), p.Active())
		}
	}
}
