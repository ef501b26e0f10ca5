package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
	"github.com/l1jgo/simsync/internal/physics"
)

type state struct {
	pos    mgl64.Vec3
	vel    mgl64.Vec3
	quat   mgl64.Quat
	angVel mgl64.Vec3
}

// Body is a rigid body of the sandbox world.
type Body struct {
	id       ecs.ID
	typ      physics.BodyType
	mass     float64
	invMass  float64
	shapes   []physics.Shape
	material string
	trigger  bool

	linearDamping  float64
	angularDamping float64

	state
	prevPos    mgl64.Vec3
	prevQuat   mgl64.Quat
	interpPos  mgl64.Vec3
	interpQuat mgl64.Quat
	init       state

	aabb      physics.AABB
	aabbStale bool
}

func newBody(id ecs.ID, desc physics.BodyDesc) *Body {
	typ := desc.Type
	if typ == 0 {
		typ = physics.Dynamic
	}
	if typ == physics.Dynamic && desc.Mass <= 0 {
		typ = physics.Static
	}
	q := desc.Quaternion
	if q.W == 0 && q.V == (mgl64.Vec3{}) {
		q = mgl64.QuatIdent()
	}
	b := &Body{
		id:             id,
		typ:            typ,
		shapes:         append([]physics.Shape(nil), desc.Shapes...),
		material:       desc.Material,
		trigger:        desc.Trigger,
		linearDamping:  desc.LinearDamping,
		angularDamping: desc.AngularDamping,
		state: state{
			pos:    desc.Position,
			vel:    desc.Velocity,
			quat:   q.Normalize(),
			angVel: desc.AngularVelocity,
		},
		aabbStale: true,
	}
	if typ == physics.Dynamic {
		b.mass = desc.Mass
		b.invMass = 1 / desc.Mass
	}
	for i := range b.shapes {
		o := b.shapes[i].Orientation
		if o.W == 0 && o.V == (mgl64.Vec3{}) {
			b.shapes[i].Orientation = mgl64.QuatIdent()
		}
	}
	b.init = b.state
	b.settle()
	return b
}

// settle makes the previous and interpolated state equal to the current one.
func (b *Body) settle() {
	b.prevPos, b.prevQuat = b.pos, b.quat
	b.interpPos, b.interpQuat = b.pos, b.quat
}

func (b *Body) ID() ecs.ID                         { return b.id }
func (b *Body) Type() physics.BodyType             { return b.typ }
func (b *Body) Shapes() []physics.Shape            { return b.shapes }
func (b *Body) Position() mgl64.Vec3               { return b.pos }
func (b *Body) Quaternion() mgl64.Quat             { return b.quat }
func (b *Body) InterpolatedPosition() mgl64.Vec3   { return b.interpPos }
func (b *Body) InterpolatedQuaternion() mgl64.Quat { return b.interpQuat }
func (b *Body) Velocity() mgl64.Vec3               { return b.vel }
func (b *Body) AngularVelocity() mgl64.Vec3        { return b.angVel }
func (b *Body) Mass() float64                      { return b.mass }
func (b *Body) Material() string                   { return b.material }
func (b *Body) IsTrigger() bool                    { return b.trigger }
func (b *Body) AABB() physics.AABB                 { return b.aabb }
func (b *Body) AABBNeedsUpdate() bool              { return b.aabbStale }

func (b *Body) SetPosition(p mgl64.Vec3) {
	b.pos = p
	b.aabbStale = true
}

func (b *Body) SetVelocity(v mgl64.Vec3)        { b.vel = v }
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

// Restart returns the body to the state it was created with.
func (b *Body) Restart() {
	b.state = b.init
	b.settle()
	b.aabbStale = true
}

// UpdateAABB recomputes the world-space box from every shape.
func (b *Body) UpdateAABB() {
	b.aabb = physics.AABB{}
	for i, s := range b.shapes {
		box := shapeAABB(s, b.pos, b.quat)
		if i == 0 {
			b.aabb = box
			continue
		}
		b.aabb = b.aabb.Extend(box)
	}
	if len(b.shapes) == 0 {
		b.aabb = physics.AABB{Lower: b.pos, Upper: b.pos}
	}
	b.aabbStale = false
}

// worldShape returns the shape's center and orientation in world space.
func (b *Body) worldShape(s physics.Shape) (mgl64.Vec3, mgl64.Quat) {
	return b.pos.Add(b.quat.Rotate(s.Offset)), b.quat.Mul(s.Orientation)
}

func shapeAABB(s physics.Shape, pos mgl64.Vec3, q mgl64.Quat) physics.AABB {
	c := pos.Add(q.Rotate(s.Offset))
	o := q.Mul(s.Orientation)
	var half mgl64.Vec3
	switch s.Kind {
	case physics.ShapeSphere:
		half = mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	case physics.ShapeParticle:
	case physics.ShapeBox:
		half = rotatedExtents(o, s.HalfExtents)
	case physics.ShapeCylinder:
		half = rotatedExtents(o, mgl64.Vec3{s.Radius, s.HalfExtents.Y(), s.Radius})
	case physics.ShapePlane:
		return planeAABB(c, o.Rotate(planeNormal))
	}
	return physics.AABB{Lower: c.Sub(half), Upper: c.Add(half)}
}

// rotatedExtents returns the half extents of the box he rotated by q.
func rotatedExtents(q mgl64.Quat, he mgl64.Vec3) mgl64.Vec3 {
	m := q.Mat4().Mat3()
	var out mgl64.Vec3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r] += math.Abs(m.At(r, c)) * he[c]
		}
	}
	return out
}

// planeAABB is infinite except along an axis-aligned normal, where it is
// bounded above (or below) by the plane.
func planeAABB(c, n mgl64.Vec3) physics.AABB {
	inf := math.Inf(1)
	box := physics.AABB{
		Lower: mgl64.Vec3{-inf, -inf, -inf},
		Upper: mgl64.Vec3{inf, inf, inf},
	}
	for i := 0; i < 3; i++ {
		switch {
		case math.Abs(n[i]-1) < axisTolerance:
			box.Upper[i] = c[i]
		case math.Abs(n[i]+1) < axisTolerance:
			box.Lower[i] = c[i]
		}
	}
	return box
}

const axisTolerance = 1e-9

// planeNormal is the body-local normal of a plane shape.
var planeNormal = mgl64.Vec3{0, 0, 1}

func mix(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// integrate advances a body by dt under gravity g.
func (b *Body) integrate(dt float64, g mgl64.Vec3) {
	switch b.typ {
	case physics.Static:
		return
	case physics.Dynamic:
		b.vel = b.vel.Add(g.Mul(dt))
		b.vel = b.vel.Mul(math.Pow(1-b.linearDamping, dt))
		b.angVel = b.angVel.Mul(math.Pow(1-b.angularDamping, dt))
	}
	b.pos = b.pos.Add(b.vel.Mul(dt))
	if b.angVel != (mgl64.Vec3{}) {
		w := mgl64.Quat{V: b.angVel}
		b.quat = b.quat.Add(w.Mul(b.quat).Scale(0.5 * dt))
	}
	b.aabbStale = true
}

// normalizeQuat renormalizes the orientation. fast uses a first-order
// approximation that is accurate near unit length.
func (b *Body) normalizeQuat(fast bool) {
	if !fast {
		b.quat = b.quat.Normalize()
		return
	}
	l2 := b.quat.Dot(b.quat)
	b.quat = b.quat.Scale((3 - l2) / 2)
}

// PlaneOrientation returns the orientation that makes a plane face normal.
func PlaneOrientation(normal mgl64.Vec3) mgl64.Quat {
	return mgl64.QuatBetweenVectors(planeNormal, normal.Normalize())
}
