package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
)

type testBody struct {
	id      ecs.ID
	typ     BodyType
	shapes  []Shape
	pos     mgl64.Vec3
	quat    mgl64.Quat
	trigger bool
}

func (b *testBody) ID() ecs.ID             { return b.id }
func (b *testBody) Type() BodyType         { return b.typ }
func (b *testBody) Shapes() []Shape        { return b.shapes }
func (b *testBody) Position() mgl64.Vec3   { return b.pos }
func (b *testBody) Quaternion() mgl64.Quat { return b.quat }
func (b *testBody) IsTrigger() bool        { return b.trigger }

type interpBody struct {
	testBody
	ipos  mgl64.Vec3
	iquat mgl64.Quat
}

func (b *interpBody) InterpolatedPosition() mgl64.Vec3   { return b.ipos }
func (b *interpBody) InterpolatedQuaternion() mgl64.Quat { return b.iquat }

type segment struct{ origin, scale mgl64.Vec3 }

type lineLog []segment

func (l *lineLog) Line(origin, scale mgl64.Vec3) { *l = append(*l, segment{origin, scale}) }

type eq struct {
	a, b   Body
	anchor *mgl64.Vec3
	ra, rb mgl64.Vec3
}

func (e *eq) BodyA() Body { return e.a }
func (e *eq) BodyB() Body { return e.b }
func (e *eq) SetSpookParams(_, _, _ float64) {}
func (e *eq) RelativeA() mgl64.Vec3 { return e.ra }
func (e *eq) RelativeB() mgl64.Vec3 { return e.rb }

type anchoredEq struct {
	eq
}

func (e *anchoredEq) Anchor() mgl64.Vec3 { return *e.anchor }

func TestDrawDistanceBetweenBodies(t *testing.T) {
	a := &testBody{pos: mgl64.Vec3{1, 0, 0}}
	b := &testBody{pos: mgl64.Vec3{4, 2, 0}}
	var log lineLog
	DrawDistance(&log, []Equation{&eq{a: a, b: b}})
	if len(log) != 1 {
		t.Fatalf("got %d lines, want 1", len(log))
	}
	if log[0].origin != a.pos || log[0].scale != (mgl64.Vec3{3, 2, 0}) {
		t.Fatalf("line = %+v", log[0])
	}
}

func TestDrawDistanceToAnchor(t *testing.T) {
	a := &testBody{pos: mgl64.Vec3{0, 5, 0}}
	anchor := mgl64.Vec3{0, 10, 0}
	var log lineLog
	DrawDistance(&log, []Equation{&anchoredEq{eq{a: a, anchor: &anchor}}})
	if len(log) != 1 || log[0].scale != (mgl64.Vec3{0, 5, 0}) {
		t.Fatalf("lines = %+v", log)
	}
}

func TestDrawPointToPointEmitsThreeLines(t *testing.T) {
	a := &testBody{pos: mgl64.Vec3{0, 0, 0}}
	b := &testBody{pos: mgl64.Vec3{2, 0, 0}}
	e := &eq{a: a, b: b, ra: mgl64.Vec3{1, 0, 0}, rb: mgl64.Vec3{-1, 0, 0}}
	var log lineLog
	DrawPointToPoint(&log, []Equation{e})
	if len(log) != 3 {
		t.Fatalf("got %d lines, want 3", len(log))
	}
	if log[0].origin != a.pos || log[0].scale != e.ra {
		t.Errorf("relative line A = %+v", log[0])
	}
	if log[1].origin != b.pos || log[1].scale != e.rb {
		t.Errorf("relative line B = %+v", log[1])
	}
	if log[2].origin != (mgl64.Vec3{1, 0, 0}) || log[2].scale != (mgl64.Vec3{}) {
		t.Errorf("error line = %+v", log[2])
	}
}

func TestAABBDrawable(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"unit", AABB{mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}}, true},
		{"infinite", AABB{mgl64.Vec3{-inf, -inf, -inf}, mgl64.Vec3{inf, 0, inf}}, false},
		{"flat", AABB{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 1}}, false},
		{"point", AABB{}, false},
		{"nan", AABB{mgl64.Vec3{math.NaN(), 0, 0}, mgl64.Vec3{1, 1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Drawable(); got != tt.want {
				t.Errorf("Drawable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderTransform(t *testing.T) {
	b := &interpBody{
		testBody: testBody{pos: mgl64.Vec3{9, 9, 9}, quat: mgl64.QuatIdent()},
		ipos:     mgl64.Vec3{1, 2, 3},
		iquat:    mgl64.QuatIdent(),
	}
	if p, _ := RenderTransform(b, false); p != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("running: position = %v, want interpolated", p)
	}
	if p, _ := RenderTransform(b, true); p != (mgl64.Vec3{9, 9, 9}) {
		t.Errorf("paused: position = %v, want raw", p)
	}

	plain := &testBody{pos: mgl64.Vec3{4, 5, 6}}
	if p, _ := RenderTransform(plain, false); p != plain.pos {
		t.Errorf("no interpolation data: position = %v, want raw", p)
	}
}

func TestSameShapeAndParticle(t *testing.T) {
	sphere := []Shape{{Kind: ShapeSphere, Radius: 1}}
	a := &testBody{typ: Dynamic, shapes: sphere}
	b := &testBody{typ: Dynamic, shapes: sphere}
	c := &testBody{typ: Static, shapes: sphere}
	d := &testBody{typ: Dynamic, shapes: []Shape{{Kind: ShapeSphere, Radius: 2}}}
	if !SameShape(a, b) {
		t.Error("identical bodies reported different")
	}
	if SameShape(a, c) {
		t.Error("different body types reported same")
	}
	if SameShape(a, d) {
		t.Error("different radii reported same")
	}

	p := &testBody{shapes: []Shape{{Kind: ShapeParticle}, {Kind: ShapeParticle}}}
	if !IsParticle(p) || IsParticle(a) || IsParticle(&testBody{}) {
		t.Error("IsParticle misclassified")
	}
	if !IsTrigger(&testBody{trigger: true}) || IsTrigger(a) {
		t.Error("IsTrigger misclassified")
	}
}
