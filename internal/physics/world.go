package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownBody = errors.New("body not in world")

// BodyDesc describes a body to create. A zero Quaternion means identity.
type BodyDesc struct {
	Type            BodyType
	Mass            float64
	Position        mgl64.Vec3
	Quaternion      mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Shapes          []Shape
	Material        string
	LinearDamping   float64
	AngularDamping  float64
	Trigger         bool
}

// DistanceDesc keeps BodyA at Distance from BodyB, or from Anchor when BodyB is nil.
type DistanceDesc struct {
	BodyA    Body
	BodyB    Body
	Anchor   mgl64.Vec3
	Distance float64
}

// PointToPointDesc joins PivotA on BodyA to PivotB on BodyB (or the world
// point PivotB when BodyB is nil). Pivots are body-local.
type PointToPointDesc struct {
	BodyA  Body
	PivotA mgl64.Vec3
	BodyB  Body
	PivotB mgl64.Vec3
}

type Solver interface {
	Iterations() int
	SetIterations(n int)
	Tolerance() float64
	SetTolerance(t float64)
}

// Profile holds the wall time, in milliseconds, of the phases of the last step.
type Profile struct {
	Broadphase   float64
	Narrowphase  float64
	MakeContacts float64
	Solve        float64
	Integrate    float64
}

// Each visits the phases in a stable order.
func (p Profile) Each(fn func(label string, ms float64)) {
	fn("broadphase", p.Broadphase)
	fn("narrowphase", p.Narrowphase)
	fn("makeContactConstraints", p.MakeContacts)
	fn("solve", p.Solve)
	fn("integrate", p.Integrate)
}

// World is the engine surface the core drives and reads.
type World interface {
	// FixedStep advances exactly one step of dt, ignoring wall-clock time.
	FixedStep(dt float64)
	// Step consumes elapsed seconds in increments of dt, at most maxSubSteps
	// times, then refreshes every body's interpolated transform.
	Step(dt, elapsed float64, maxSubSteps int)
	Time() float64

	AddBody(desc BodyDesc) (Body, error)
	RemoveBody(b Body)
	// Bodies and Constraints may return internal slices. Callers that remove
	// while iterating must copy first.
	Bodies() []Body
	Contacts() []Contact

	AddDistanceConstraint(desc DistanceDesc) (Constraint, error)
	AddPointToPointConstraint(desc PointToPointDesc) (Constraint, error)
	RemoveConstraint(c Constraint)
	Constraints() []Constraint

	AddContactMaterial(a, b string, friction, restitution float64) *ContactMaterial
	ContactMaterials() []*ContactMaterial
	DefaultContactMaterial() *ContactMaterial

	Gravity() mgl64.Vec3
	SetGravity(g mgl64.Vec3)
	QuatNormalizeSkip() int
	QuatNormalizeFast() bool
	SetQuatNormalize(skip int, fast bool)
	Solver() Solver

	SetProfiling(on bool)
	Profile() Profile
}
