package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/physics"
)

// Equation defaults, matching the contact material defaults.
const (
	defaultStiffness  = 1e7
	defaultRelaxation = 3
)

// equation is one solver row between bodyA and either bodyB or a world anchor.
type equation struct {
	bodyA *Body
	bodyB *Body
	// anchor is used when bodyB is nil.
	anchor mgl64.Vec3
	// pivots are body-local attachment points.
	pivotA mgl64.Vec3
	pivotB mgl64.Vec3

	stiffness  float64
	relaxation float64
	timeStep   float64
}

func newEquation(a, b *Body) *equation {
	return &equation{bodyA: a, bodyB: b, stiffness: defaultStiffness, relaxation: defaultRelaxation, timeStep: 1.0 / 60}
}

func (e *equation) BodyA() physics.Body { return e.bodyA }

// BodyB returns nil for anchored equations.
func (e *equation) BodyB() physics.Body {
	if e.bodyB == nil {
		return nil
	}
	return e.bodyB
}

func (e *equation) Anchor() mgl64.Vec3 { return e.anchor }

func (e *equation) RelativeA() mgl64.Vec3 { return e.bodyA.quat.Rotate(e.pivotA) }

func (e *equation) RelativeB() mgl64.Vec3 {
	if e.bodyB == nil {
		return mgl64.Vec3{}
	}
	return e.bodyB.quat.Rotate(e.pivotB)
}

func (e *equation) SetSpookParams(stiffness, relaxation, timeStep float64) {
	e.stiffness, e.relaxation, e.timeStep = stiffness, relaxation, timeStep
}

// erp is the fraction of positional error corrected per iteration.
func (e *equation) erp() float64 { return spookERP(e.stiffness, e.relaxation, e.timeStep) }

// spookERP derives a Baumgarte-style correction factor from spook stiffness
// k, relaxation d and step h.
func spookERP(k, d, h float64) float64 {
	if h <= 0 || k <= 0 {
		return 0
	}
	kh2 := k * h * h
	return math.Min(1, 4/(1+4*d)) * kh2 / (1 + kh2)
}

// targets returns the two world points the equation pulls together.
func (e *equation) targets() (mgl64.Vec3, mgl64.Vec3) {
	pa := e.bodyA.pos.Add(e.RelativeA())
	if e.bodyB == nil {
		return pa, e.anchor
	}
	return pa, e.bodyB.pos.Add(e.RelativeB())
}

// DistanceConstraint keeps body A at a fixed distance from body B or an anchor.
type DistanceConstraint struct {
	eq       *equation
	distance float64
}

func (c *DistanceConstraint) Equations() []physics.Equation { return []physics.Equation{c.eq} }
func (c *DistanceConstraint) Distance() float64             { return c.distance }

func (c *DistanceConstraint) DrawDebug(d physics.DebugDrawer) {
	physics.DrawDistance(d, c.Equations())
}

func (c *DistanceConstraint) involves(b *Body) bool { return c.eq.bodyA == b || c.eq.bodyB == b }

func (c *DistanceConstraint) solve() {
	pa, pb := c.eq.targets()
	delta := pb.Sub(pa)
	l := delta.Len()
	if l == 0 {
		return
	}
	diff := (l - c.distance) / l * c.eq.erp()
	separate(c.eq.bodyA, c.eq.bodyB, delta.Mul(diff))
}

// PointToPointConstraint joins a pivot of body A to a pivot of body B, or to
// a fixed world point.
type PointToPointConstraint struct {
	eq *equation
}

func (c *PointToPointConstraint) Equations() []physics.Equation { return []physics.Equation{c.eq} }

func (c *PointToPointConstraint) DrawDebug(d physics.DebugDrawer) {
	physics.DrawPointToPoint(d, c.Equations())
}

func (c *PointToPointConstraint) involves(b *Body) bool { return c.eq.bodyA == b || c.eq.bodyB == b }

func (c *PointToPointConstraint) solve() {
	pa, pb := c.eq.targets()
	separate(c.eq.bodyA, c.eq.bodyB, pb.Sub(pa).Mul(c.eq.erp()))
}

type solvable interface {
	physics.Constraint
	solve()
	involves(b *Body) bool
}

// separate moves a toward b (or b toward a) by corr in total, split by
// inverse mass. A nil b is immovable.
func separate(a, b *Body, corr mgl64.Vec3) {
	wa := a.invMass
	var wb float64
	if b != nil {
		wb = b.invMass
	}
	w := wa + wb
	if w == 0 {
		return
	}
	if wa > 0 {
		a.pos = a.pos.Add(corr.Mul(wa / w))
		a.aabbStale = true
	}
	if wb > 0 {
		b.pos = b.pos.Sub(corr.Mul(wb / w))
		b.aabbStale = true
	}
}
