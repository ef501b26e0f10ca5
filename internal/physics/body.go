package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
)

// BodyType values match the bit flags of the common engines so they can be
// passed through unchanged.
type BodyType int

const (
	Dynamic   BodyType = 1
	Static    BodyType = 2
	Kinematic BodyType = 4
)

func (t BodyType) String() string {
	switch t {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	}
	return "unknown"
}

// ParseBodyType accepts the lower-case names used by scene files.
func ParseBodyType(s string) (BodyType, bool) {
	switch s {
	case "", "dynamic":
		return Dynamic, true
	case "static":
		return Static, true
	case "kinematic":
		return Kinematic, true
	}
	return 0, false
}

type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapePlane
	ShapeParticle
	ShapeCylinder
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapePlane:
		return "plane"
	case ShapeParticle:
		return "particle"
	case ShapeCylinder:
		return "cylinder"
	}
	return "unknown"
}

func ParseShapeKind(s string) (ShapeKind, bool) {
	for k := ShapeSphere; k <= ShapeCylinder; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Shape is one collision primitive attached to a body, in body-local space.
// Cylinders use Radius and HalfExtents.Y() as half height.
type Shape struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents mgl64.Vec3
	Offset      mgl64.Vec3
	Orientation mgl64.Quat
}

// Body is the read-only view of a simulation body.
type Body interface {
	ID() ecs.ID
	Type() BodyType
	Shapes() []Shape
	Position() mgl64.Vec3
	Quaternion() mgl64.Quat
}

// Interpolated is implemented by bodies that keep a render-time blend
// between their last two stepped states.
type Interpolated interface {
	InterpolatedPosition() mgl64.Vec3
	InterpolatedQuaternion() mgl64.Quat
}

// Kinetic exposes velocities. Bodies without it are treated as at rest.
type Kinetic interface {
	Velocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
}

// Bounded exposes a cached world-space AABB.
type Bounded interface {
	AABB() AABB
	AABBNeedsUpdate() bool
	UpdateAABB()
}

// Trigger is implemented by bodies that report overlaps without a response.
type Trigger interface {
	IsTrigger() bool
}

// Restartable bodies can return to the state they were created with.
type Restartable interface {
	Restart()
}

// IsParticle reports whether every shape of b is a particle.
func IsParticle(b Body) bool {
	shapes := b.Shapes()
	if len(shapes) == 0 {
		return false
	}
	for _, s := range shapes {
		if s.Kind != ShapeParticle {
			return false
		}
	}
	return true
}

// IsTrigger reports whether b is a trigger body.
func IsTrigger(b Body) bool {
	t, ok := b.(Trigger)
	return ok && t.IsTrigger()
}

// RenderTransform picks the transform a proxy should show: the interpolated
// one normally, the raw stepped one when paused or when b has no
// interpolation data.
func RenderTransform(b Body, paused bool) (mgl64.Vec3, mgl64.Quat) {
	if !paused {
		if ib, ok := b.(Interpolated); ok {
			return ib.InterpolatedPosition(), ib.InterpolatedQuaternion()
		}
	}
	return b.Position(), b.Quaternion()
}

// SameShape reports whether a and b would produce identical render geometry.
func SameShape(a, b Body) bool {
	if a.Type() != b.Type() {
		return false
	}
	sa, sb := a.Shapes(), b.Shapes()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i].Kind != sb[i].Kind ||
			sa[i].Radius != sb[i].Radius ||
			sa[i].HalfExtents != sb[i].HalfExtents ||
			sa[i].Offset != sb[i].Offset ||
			sa[i].Orientation != sb[i].Orientation {
			return false
		}
	}
	return true
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Lower mgl64.Vec3
	Upper mgl64.Vec3
}

// Drawable reports whether every bound is finite and every extent non-zero.
// Planes produce infinite boxes and particles produce flat ones; neither is drawn.
func (b AABB) Drawable() bool {
	for i := 0; i < 3; i++ {
		if math.IsInf(b.Lower[i], 0) || math.IsNaN(b.Lower[i]) ||
			math.IsInf(b.Upper[i], 0) || math.IsNaN(b.Upper[i]) {
			return false
		}
		if b.Upper[i]-b.Lower[i] == 0 {
			return false
		}
	}
	return true
}

func (b AABB) Center() mgl64.Vec3 {
	return b.Lower.Add(b.Upper).Mul(0.5)
}

func (b AABB) Size() mgl64.Vec3 {
	return b.Upper.Sub(b.Lower)
}

// Extend grows b to contain o.
func (b AABB) Extend(o AABB) AABB {
	for i := 0; i < 3; i++ {
		b.Lower[i] = math.Min(b.Lower[i], o.Lower[i])
		b.Upper[i] = math.Max(b.Upper[i], o.Upper[i])
	}
	return b
}
