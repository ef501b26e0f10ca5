// Package physicstest provides in-memory fakes of the physics interfaces.
package physicstest

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
	"github.com/l1jgo/simsync/internal/physics"
)

// Body is a settable physics.Body with interpolation, AABB and restart support.
type Body struct {
	BodyID      ecs.ID
	Kind        physics.BodyType
	ShapeList   []physics.Shape
	Pos         mgl64.Vec3
	Quat        mgl64.Quat
	InterpPos   mgl64.Vec3
	InterpQuat  mgl64.Quat
	Box         physics.AABB
	BoxStale    bool
	BoxUpdates  int
	TriggerFlag bool
	Restarts    int
}

var nextID uint32

// NewBody returns a dynamic unit sphere at pos with a fresh ID.
func NewBody(pos mgl64.Vec3) *Body {
	nextID++
	return &Body{
		BodyID:     ecs.NewID(nextID, 0),
		Kind:       physics.Dynamic,
		ShapeList:  []physics.Shape{{Kind: physics.ShapeSphere, Radius: 1}},
		Pos:        pos,
		Quat:       mgl64.QuatIdent(),
		InterpPos:  pos,
		InterpQuat: mgl64.QuatIdent(),
		Box: physics.AABB{
			Lower: pos.Sub(mgl64.Vec3{1, 1, 1}),
			Upper: pos.Add(mgl64.Vec3{1, 1, 1}),
		},
	}
}

func (b *Body) ID() ecs.ID                         { return b.BodyID }
func (b *Body) Type() physics.BodyType             { return b.Kind }
func (b *Body) Shapes() []physics.Shape            { return b.ShapeList }
func (b *Body) Position() mgl64.Vec3               { return b.Pos }
func (b *Body) Quaternion() mgl64.Quat             { return b.Quat }
func (b *Body) InterpolatedPosition() mgl64.Vec3   { return b.InterpPos }
func (b *Body) InterpolatedQuaternion() mgl64.Quat { return b.InterpQuat }
func (b *Body) AABB() physics.AABB                 { return b.Box }
func (b *Body) AABBNeedsUpdate() bool              { return b.BoxStale }
func (b *Body) IsTrigger() bool                    { return b.TriggerFlag }
func (b *Body) Restart()                           { b.Restarts++ }

func (b *Body) UpdateAABB() {
	b.BoxStale = false
	b.BoxUpdates++
}

// Equation is a settable physics.Equation with attachment vectors.
type Equation struct {
	A, B       physics.Body
	RA, RB     mgl64.Vec3
	Stiffness  float64
	Relaxation float64
	TimeStep   float64
}

func (e *Equation) BodyA() physics.Body   { return e.A }
func (e *Equation) BodyB() physics.Body   { return e.B }
func (e *Equation) RelativeA() mgl64.Vec3 { return e.RA }
func (e *Equation) RelativeB() mgl64.Vec3 { return e.RB }

func (e *Equation) SetSpookParams(stiffness, relaxation, timeStep float64) {
	e.Stiffness, e.Relaxation, e.TimeStep = stiffness, relaxation, timeStep
}

// Distance draws as a distance constraint.
type Distance struct{ Eqs []physics.Equation }

func (c *Distance) Equations() []physics.Equation { return c.Eqs }
func (c *Distance) DrawDebug(d physics.DebugDrawer) {
	physics.DrawDistance(d, c.Eqs)
}

// PointToPoint draws as a point-to-point constraint.
type PointToPoint struct{ Eqs []physics.Equation }

func (c *PointToPoint) Equations() []physics.Equation { return c.Eqs }
func (c *PointToPoint) DrawDebug(d physics.DebugDrawer) {
	physics.DrawPointToPoint(d, c.Eqs)
}

// StepCall records one stepping call. Fixed is true for FixedStep.
type StepCall struct {
	Fixed       bool
	Dt          float64
	Elapsed     float64
	MaxSubSteps int
}

type solver struct {
	iterations int
	tolerance  float64
}

func (s *solver) Iterations() int        { return s.iterations }
func (s *solver) SetIterations(n int)    { s.iterations = n }
func (s *solver) Tolerance() float64     { return s.tolerance }
func (s *solver) SetTolerance(t float64) { s.tolerance = t }

// World records calls and holds whatever the test puts in it.
type World struct {
	Steps         []StepCall
	BodyList      []physics.Body
	ContactList   []physics.Contact
	ConstraintSet []physics.Constraint
	Materials     []*physics.ContactMaterial
	Default       physics.ContactMaterial
	G             mgl64.Vec3
	Skip          int
	Fast          bool
	Profiling     bool
	LastProfile   physics.Profile
	solver        solver
	now           float64
}

func NewWorld() *World {
	return &World{solver: solver{iterations: 10, tolerance: 1e-7}}
}

func (w *World) FixedStep(dt float64) {
	w.Steps = append(w.Steps, StepCall{Fixed: true, Dt: dt})
	w.now += dt
}

func (w *World) Step(dt, elapsed float64, maxSubSteps int) {
	w.Steps = append(w.Steps, StepCall{Dt: dt, Elapsed: elapsed, MaxSubSteps: maxSubSteps})
	w.now += elapsed
}

func (w *World) Time() float64 { return w.now }

func (w *World) AddBody(desc physics.BodyDesc) (physics.Body, error) {
	b := NewBody(desc.Position)
	if desc.Type != 0 {
		b.Kind = desc.Type
	}
	if len(desc.Shapes) > 0 {
		b.ShapeList = desc.Shapes
	}
	b.TriggerFlag = desc.Trigger
	w.BodyList = append(w.BodyList, b)
	return b, nil
}

// Add inserts an existing body.
func (w *World) Add(b physics.Body) { w.BodyList = append(w.BodyList, b) }

func (w *World) RemoveBody(b physics.Body) {
	w.BodyList = slices.DeleteFunc(w.BodyList, func(x physics.Body) bool { return x.ID() == b.ID() })
}

func (w *World) Bodies() []physics.Body      { return w.BodyList }
func (w *World) Contacts() []physics.Contact { return w.ContactList }

func (w *World) AddDistanceConstraint(desc physics.DistanceDesc) (physics.Constraint, error) {
	c := &Distance{Eqs: []physics.Equation{&Equation{A: desc.BodyA, B: desc.BodyB}}}
	w.ConstraintSet = append(w.ConstraintSet, c)
	return c, nil
}

func (w *World) AddPointToPointConstraint(desc physics.PointToPointDesc) (physics.Constraint, error) {
	c := &PointToPoint{Eqs: []physics.Equation{&Equation{A: desc.BodyA, B: desc.BodyB, RA: desc.PivotA, RB: desc.PivotB}}}
	w.ConstraintSet = append(w.ConstraintSet, c)
	return c, nil
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	w.ConstraintSet = slices.DeleteFunc(w.ConstraintSet, func(x physics.Constraint) bool { return x == c })
}

func (w *World) Constraints() []physics.Constraint { return w.ConstraintSet }

func (w *World) AddContactMaterial(a, b string, friction, restitution float64) *physics.ContactMaterial {
	m := &physics.ContactMaterial{MaterialA: a, MaterialB: b, Friction: friction, Restitution: restitution}
	w.Materials = append(w.Materials, m)
	return m
}

func (w *World) ContactMaterials() []*physics.ContactMaterial { return w.Materials }
func (w *World) DefaultContactMaterial() *physics.ContactMaterial {
	return &w.Default
}

func (w *World) Gravity() mgl64.Vec3            { return w.G }
func (w *World) SetGravity(g mgl64.Vec3)        { w.G = g }
func (w *World) QuatNormalizeSkip() int         { return w.Skip }
func (w *World) QuatNormalizeFast() bool        { return w.Fast }
func (w *World) SetQuatNormalize(s int, f bool) { w.Skip, w.Fast = s, f }
func (w *World) Solver() physics.Solver         { return &w.solver }
func (w *World) SetProfiling(on bool)           { w.Profiling = on }
func (w *World) Profile() physics.Profile       { return w.LastProfile }

var _ physics.World = (*World)(nil)
