package render

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestGraphAddRemoveIdempotent(t *testing.T) {
	g := NewGraph()
	a := NewLine("a", LineColor)
	b := NewLine("b", LineColor)
	g.Add(a)
	g.Add(a)
	g.Add(b)
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	g.Remove(a)
	g.Remove(a)
	if g.Len() != 1 || g.Contains(a) || !g.Contains(b) {
		t.Fatalf("after remove: len=%d containsA=%v containsB=%v", g.Len(), g.Contains(a), g.Contains(b))
	}
}

func TestGraphRemoveKeepsIndexConsistent(t *testing.T) {
	g := NewGraph()
	nodes := make([]*Node, 5)
	for i := range nodes {
		nodes[i] = NewPoint("p", ContactColor)
		g.Add(nodes[i])
	}
	g.Remove(nodes[1])
	g.Remove(nodes[4])
	g.Remove(nodes[0])
	for _, n := range []*Node{nodes[2], nodes[3]} {
		if !g.Contains(n) {
			t.Fatal("surviving node lost")
		}
	}
	seen := 0
	g.Each(func(*Node) { seen++ })
	if seen != 2 {
		t.Fatalf("Each visited %d nodes, want 2", seen)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("wireframe"); err != nil || m != ModeWireframe {
		t.Fatalf("ParseMode(wireframe) = %v, %v", m, err)
	}
	if _, err := ParseMode("phong"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("ParseMode(phong) error = %v, want ErrUnknownMode", err)
	}
}

func TestModeCycle(t *testing.T) {
	if ModeSolid.Next() != ModeWireframe || ModeWireframe.Next() != ModeSolid {
		t.Fatal("mode cycle broken")
	}
	if !ModeWireframe.Material().Wireframe || ModeSolid.Material().Wireframe {
		t.Fatal("mode materials swapped")
	}
}

func TestInstancedDirtyFlag(t *testing.T) {
	n := NewInstanced("group", nil, SolidMaterial, 3)
	n.SetMatrixAt(1, mgl64.Translate3D(1, 2, 3))
	n.SetMatrixAt(9, mgl64.Translate3D(1, 2, 3))
	n.MarkInstancesDirty()
	m, dirty := n.ConsumeInstances()
	if !dirty || len(m) != 3 {
		t.Fatalf("ConsumeInstances = %d matrices, dirty=%v", len(m), dirty)
	}
	if m[1].Col(3) != (mgl64.Vec4{1, 2, 3, 1}) {
		t.Fatalf("slot 1 translation = %v", m[1].Col(3))
	}
	if _, dirty := n.ConsumeInstances(); dirty {
		t.Fatal("dirty flag not cleared")
	}
}

func TestOrientationZeroIsIdentity(t *testing.T) {
	if Orientation(mgl64.Quat{}) != mgl64.QuatIdent() {
		t.Fatal("zero quaternion not mapped to identity")
	}
	p := Compose(mgl64.Vec3{1, 0, 0}, mgl64.Quat{}, mgl64.Vec3{1, 1, 1})
	if p.Col(3) != (mgl64.Vec4{1, 0, 0, 1}) {
		t.Fatalf("translation column = %v", p.Col(3))
	}
}
