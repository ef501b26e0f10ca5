// Package sim is a small rigid-body sandbox implementing physics.World.
//
// It integrates with position-based dynamics: velocities predict positions,
// contacts and constraints project them, and velocities are derived back
// from the corrected positions. Supported contacts are sphere and particle
// pairs, and planes against spheres, particles and boxes.
package sim

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
	"github.com/l1jgo/simsync/internal/physics"
)

// Material defaults for the default contact material.
const (
	DefaultFriction    = 0.3
	DefaultRestitution = 0.0
)

type solver struct {
	iterations int
	tolerance  float64
}

func (s *solver) Iterations() int { return s.iterations }

func (s *solver) SetIterations(n int) {
	if n < 1 {
		n = 1
	}
	s.iterations = n
}

func (s *solver) Tolerance() float64     { return s.tolerance }
func (s *solver) SetTolerance(t float64) { s.tolerance = t }

// World is not safe for concurrent use.
type World struct {
	alloc       *ecs.Allocator
	bodies      []*Body
	constraints []solvable
	contacts    []contact
	materials   []*physics.ContactMaterial
	def         physics.ContactMaterial

	gravity    mgl64.Vec3
	solver     solver
	quatSkip   int
	quatFast   bool
	stepNumber int

	accumulator float64
	time        float64

	profiling bool
	profile   physics.Profile
	nowFunc   func() time.Time
}

func NewWorld() *World {
	w := &World{
		alloc:  ecs.NewAllocator(),
		solver: solver{iterations: 10, tolerance: 1e-7},
		def: physics.ContactMaterial{
			Friction:    DefaultFriction,
			Restitution: DefaultRestitution,
		},
		nowFunc: time.Now,
	}
	w.def.SetSpook(defaultStiffness, defaultRelaxation)
	return w
}

func (w *World) Time() float64 { return w.time }

func (w *World) AddBody(desc physics.BodyDesc) (physics.Body, error) {
	for i, s := range desc.Shapes {
		if s.Kind == physics.ShapeSphere && s.Radius <= 0 {
			return nil, fmt.Errorf("add body: shape %d: sphere radius %g", i, s.Radius)
		}
	}
	b := newBody(w.alloc.Create(), desc)
	b.UpdateAABB()
	w.bodies = append(w.bodies, b)
	return b, nil
}

func (w *World) RemoveBody(pb physics.Body) {
	b, ok := w.lookup(pb)
	if !ok {
		return
	}
	w.bodies = slices.DeleteFunc(w.bodies, func(x *Body) bool { return x == b })
	w.contacts = slices.DeleteFunc(w.contacts, func(c contact) bool { return c.a == b || c.b == b })
	w.alloc.Release(b.id)
}

func (w *World) lookup(pb physics.Body) (*Body, bool) {
	if pb == nil {
		return nil, false
	}
	b, ok := pb.(*Body)
	if !ok || !w.alloc.Alive(b.id) {
		return nil, false
	}
	for _, x := range w.bodies {
		if x == b {
			return b, true
		}
	}
	return nil, false
}

func (w *World) Bodies() []physics.Body {
	out := make([]physics.Body, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = b
	}
	return out
}

func (w *World) Contacts() []physics.Contact {
	out := make([]physics.Contact, len(w.contacts))
	for i := range w.contacts {
		out[i] = w.contacts[i].Contact
	}
	return out
}

// AddDistanceConstraint uses the current separation when desc.Distance is zero.
func (w *World) AddDistanceConstraint(desc physics.DistanceDesc) (physics.Constraint, error) {
	a, ok := w.lookup(desc.BodyA)
	if !ok {
		return nil, fmt.Errorf("distance constraint: body A: %w", physics.ErrUnknownBody)
	}
	eq := newEquation(a, nil)
	target := desc.Anchor
	if desc.BodyB != nil {
		b, ok := w.lookup(desc.BodyB)
		if !ok {
			return nil, fmt.Errorf("distance constraint: body B: %w", physics.ErrUnknownBody)
		}
		eq.bodyB = b
		target = b.pos
	} else {
		eq.anchor = desc.Anchor
	}
	dist := desc.Distance
	if dist == 0 {
		dist = target.Sub(a.pos).Len()
	}
	c := &DistanceConstraint{eq: eq, distance: dist}
	w.constraints = append(w.constraints, c)
	return c, nil
}

func (w *World) AddPointToPointConstraint(desc physics.PointToPointDesc) (physics.Constraint, error) {
	a, ok := w.lookup(desc.BodyA)
	if !ok {
		return nil, fmt.Errorf("point to point constraint: body A: %w", physics.ErrUnknownBody)
	}
	eq := newEquation(a, nil)
	eq.pivotA = desc.PivotA
	if desc.BodyB != nil {
		b, ok := w.lookup(desc.BodyB)
		if !ok {
			return nil, fmt.Errorf("point to point constraint: body B: %w", physics.ErrUnknownBody)
		}
		eq.bodyB = b
		eq.pivotB = desc.PivotB
	} else {
		eq.anchor = desc.PivotB
	}
	c := &PointToPointConstraint{eq: eq}
	w.constraints = append(w.constraints, c)
	return c, nil
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	w.constraints = slices.DeleteFunc(w.constraints, func(x solvable) bool { return physics.Constraint(x) == c })
}

func (w *World) Constraints() []physics.Constraint {
	out := make([]physics.Constraint, len(w.constraints))
	for i, c := range w.constraints {
		out[i] = c
	}
	return out
}

// AddContactMaterial registers the response between materials a and b.
func (w *World) AddContactMaterial(a, b string, friction, restitution float64) *physics.ContactMaterial {
	m := &physics.ContactMaterial{MaterialA: a, MaterialB: b, Friction: friction, Restitution: restitution}
	m.SetSpook(defaultStiffness, defaultRelaxation)
	w.materials = append(w.materials, m)
	return m
}

func (w *World) ContactMaterials() []*physics.ContactMaterial { return w.materials }

func (w *World) DefaultContactMaterial() *physics.ContactMaterial { return &w.def }

func (w *World) material(a, b *Body) *physics.ContactMaterial {
	for _, m := range w.materials {
		if (m.MaterialA == a.material && m.MaterialB == b.material) ||
			(m.MaterialA == b.material && m.MaterialB == a.material) {
			return m
		}
	}
	return &w.def
}

func (w *World) Gravity() mgl64.Vec3      { return w.gravity }
func (w *World) SetGravity(g mgl64.Vec3)  { w.gravity = g }
func (w *World) QuatNormalizeSkip() int   { return w.quatSkip }
func (w *World) QuatNormalizeFast() bool  { return w.quatFast }
func (w *World) Solver() physics.Solver   { return &w.solver }
func (w *World) SetProfiling(on bool)     { w.profiling = on }
func (w *World) Profile() physics.Profile { return w.profile }

func (w *World) SetQuatNormalize(skip int, fast bool) {
	if skip < 0 {
		skip = 0
	}
	w.quatSkip, w.quatFast = skip, fast
}

// FixedStep advances one step of dt and shows the result uninterpolated.
func (w *World) FixedStep(dt float64) {
	w.internalStep(dt)
	w.time += dt
	for _, b := range w.bodies {
		b.interpPos, b.interpQuat = b.pos, b.quat
	}
}

// Step consumes elapsed in steps of dt, at most maxSubSteps of them, then
// blends every body between its last two states by the leftover fraction.
func (w *World) Step(dt, elapsed float64, maxSubSteps int) {
	if dt <= 0 {
		return
	}
	w.accumulator += elapsed
	for sub := 0; w.accumulator >= dt && sub < maxSubSteps; sub++ {
		w.internalStep(dt)
		w.accumulator -= dt
	}
	w.accumulator = math.Mod(w.accumulator, dt)
	t := w.accumulator / dt
	for _, b := range w.bodies {
		b.interpPos = mix(b.prevPos, b.pos, t)
		b.interpQuat = mgl64.QuatSlerp(b.prevQuat, b.quat, t).Normalize()
	}
	w.time += elapsed
}

func (w *World) internalStep(dt float64) {
	var mark time.Time
	var prof physics.Profile
	lap := func(dst *float64) {
		if !w.profiling {
			return
		}
		now := w.nowFunc()
		*dst = float64(now.Sub(mark)) / float64(time.Millisecond)
		mark = now
	}
	if w.profiling {
		mark = w.nowFunc()
	}

	for _, b := range w.bodies {
		b.prevPos, b.prevQuat = b.pos, b.quat
		b.integrate(dt, w.gravity)
	}

	pairs := broadphase(w.bodies)
	lap(&prof.Broadphase)

	w.contacts = w.contacts[:0]
	for _, p := range pairs {
		w.contacts = narrowphase(p[0], p[1], w.contacts)
	}
	lap(&prof.Narrowphase)

	solved := w.contacts[:0:0]
	for _, c := range w.contacts {
		if c.a.trigger || c.b.trigger {
			continue
		}
		solved = append(solved, c)
	}
	lap(&prof.MakeContacts)

	iters := w.solver.iterations
	for it := 0; it < iters; it++ {
		for _, c := range solved {
			m := w.material(c.a, c.b)
			erp := spookERP(m.ContactStiffness, m.ContactRelaxation, dt)
			separate(c.a, c.b, c.Normal.Mul(-c.depth*erp/float64(iters)))
		}
		for _, c := range w.constraints {
			c.solve()
		}
	}
	lap(&prof.Solve)

	w.stepNumber++
	normalize := w.stepNumber%(w.quatSkip+1) == 0
	for _, b := range w.bodies {
		if b.typ == physics.Static {
			continue
		}
		b.aabbStale = true
		if b.typ == physics.Dynamic {
			b.vel = b.pos.Sub(b.prevPos).Mul(1 / dt)
		}
		if normalize {
			b.normalizeQuat(w.quatFast)
		}
	}
	for _, c := range solved {
		w.respond(c)
	}
	lap(&prof.Integrate)

	if w.profiling {
		w.profile = prof
	}
}

// respond applies restitution and friction to the velocities of a solved contact.
func (w *World) respond(c contact) {
	m := w.material(c.a, c.b)
	wa, wb := c.a.invMass, c.b.invMass
	if wa+wb == 0 {
		return
	}
	n := c.Normal
	rel := c.b.vel.Sub(c.a.vel)
	vn := rel.Dot(n)
	dvn := 0.0
	if c.vn < 0 {
		dvn = -m.Restitution*c.vn - vn
	}
	vt := rel.Sub(n.Mul(vn))
	var dvt mgl64.Vec3
	if l := vt.Len(); l > 0 {
		dvt = vt.Mul(-math.Min(1, m.Friction*math.Abs(dvn)/l))
	}
	dv := n.Mul(dvn).Add(dvt)
	w.applyRelative(c.a, c.b, dv)
}

// applyRelative changes the relative velocity of b with respect to a by dv,
// split by inverse mass.
func (w *World) applyRelative(a, b *Body, dv mgl64.Vec3) {
	wa, wb := a.invMass, b.invMass
	s := wa + wb
	a.vel = a.vel.Sub(dv.Mul(wa / s))
	b.vel = b.vel.Add(dv.Mul(wb / s))
}

var _ physics.World = (*World)(nil)
