package physics

import "github.com/go-gl/mathgl/mgl64"

// Contact is one narrow-phase contact between two bodies. RA and RB are the
// contact point relative to each body's position, in world orientation.
type Contact struct {
	BodyA  Body
	BodyB  Body
	RA     mgl64.Vec3
	RB     mgl64.Vec3
	Normal mgl64.Vec3
}

// Equation is one row of a constraint as seen by the solver.
// BodyB may be nil when the equation is anchored to a fixed point.
type Equation interface {
	BodyA() Body
	BodyB() Body
	SetSpookParams(stiffness, relaxation, timeStep float64)
}

// Anchored equations pin BodyA to a fixed world point instead of BodyB.
type Anchored interface {
	Anchor() mgl64.Vec3
}

// Attached equations expose the attachment point on each body relative to
// that body's position.
type Attached interface {
	RelativeA() mgl64.Vec3
	RelativeB() mgl64.Vec3
}

type Constraint interface {
	Equations() []Equation
}

// DebugDrawer receives line segments from debug-drawable constraints.
// scale is the segment vector from origin.
type DebugDrawer interface {
	Line(origin, scale mgl64.Vec3)
}

// DebugDrawable is implemented by each constraint variant that can depict
// itself. Variants without it are skipped by the overlay.
type DebugDrawable interface {
	DrawDebug(d DebugDrawer)
}

// DrawDistance draws one line per equation from body A to body B, or to the
// anchor when body B is absent.
func DrawDistance(d DebugDrawer, eqs []Equation) {
	for _, eq := range eqs {
		a := eq.BodyA()
		if a == nil {
			continue
		}
		var target mgl64.Vec3
		if b := eq.BodyB(); b != nil {
			target = b.Position()
		} else if an, ok := eq.(Anchored); ok {
			target = an.Anchor()
		} else {
			continue
		}
		d.Line(a.Position(), target.Sub(a.Position()))
	}
}

// DrawPointToPoint draws, per equation, the relative vector from each body to
// the shared pivot and a third line for the residual error between the two
// attachment points. Solvers no longer expose that residual, so the third
// line is emitted as a degenerate segment at body B's attachment point.
func DrawPointToPoint(d DebugDrawer, eqs []Equation) {
	for _, eq := range eqs {
		a, b := eq.BodyA(), eq.BodyB()
		if a == nil {
			continue
		}
		var ra, rb mgl64.Vec3
		att, hasAtt := eq.(Attached)
		if hasAtt {
			ra, rb = att.RelativeA(), att.RelativeB()
		}
		d.Line(a.Position(), ra)

		var pb mgl64.Vec3
		if b != nil {
			pb = b.Position()
		} else if an, ok := eq.(Anchored); ok {
			pb = an.Anchor()
		}
		d.Line(pb, rb)

		var errAt mgl64.Vec3
		if b != nil && hasAtt {
			errAt = b.Position().Add(rb)
		}
		d.Line(errAt, mgl64.Vec3{})
	}
}

// ContactMaterial tunes the response between two named body materials.
type ContactMaterial struct {
	MaterialA          string
	MaterialB          string
	Friction           float64
	Restitution        float64
	ContactStiffness   float64
	ContactRelaxation  float64
	FrictionStiffness  float64
	FrictionRelaxation float64
}

// SetSpook applies one stiffness/relaxation pair to both contact and friction rows.
func (m *ContactMaterial) SetSpook(stiffness, relaxation float64) {
	m.ContactStiffness = stiffness
	m.FrictionStiffness = stiffness
	m.ContactRelaxation = relaxation
	m.FrictionRelaxation = relaxation
}
