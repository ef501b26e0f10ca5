package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/physics"
)

type NodeKind int

const (
	KindMesh      NodeKind = iota // one body, one node
	KindInstanced                 // one shared buffer, one slot per body
	KindLine                      // unit segment (0,0,0)→(1,1,1) scaled to a vector
	KindPoint                     // small sphere
	KindBox                       // unit wireframe box
	KindAxes                      // three unit basis segments
)

func (k NodeKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindInstanced:
		return "instanced"
	case KindLine:
		return "line"
	case KindPoint:
		return "point"
	case KindBox:
		return "box"
	case KindAxes:
		return "axes"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one object of the retained scene graph. The frame loop owns every
// Node; presenters only read them between frames.
type Node struct {
	Kind       NodeKind
	Name       string
	Parts      []physics.Shape
	Material   Material
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3
	CastShadow bool

	// Instanced nodes only.
	instances   []mgl64.Mat4
	needsUpdate bool
	dirtyMarks  int
}

func newNode(kind NodeKind, name string, m Material) *Node {
	return &Node{
		Kind:       kind,
		Name:       name,
		Material:   m,
		Quaternion: mgl64.QuatIdent(),
		Scale:      mgl64.Vec3{1, 1, 1},
	}
}

// NewMesh builds an individually owned mesh from body-local shapes.
func NewMesh(name string, parts []physics.Shape, m Material) *Node {
	n := newNode(KindMesh, name, m)
	n.Parts = append([]physics.Shape(nil), parts...)
	n.CastShadow = true
	return n
}

// NewInstanced builds a shared buffer with count slots, all set to identity.
func NewInstanced(name string, parts []physics.Shape, m Material, count int) *Node {
	n := newNode(KindInstanced, name, m)
	n.Parts = append([]physics.Shape(nil), parts...)
	n.CastShadow = true
	n.instances = make([]mgl64.Mat4, count)
	for i := range n.instances {
		n.instances[i] = mgl64.Ident4()
	}
	return n
}

func NewLine(name string, color uint32) *Node {
	return newNode(KindLine, name, Material{Name: "line", Color: color})
}

func NewPoint(name string, color uint32) *Node {
	return newNode(KindPoint, name, Material{Name: "point", Color: color})
}

func NewBox(name string, color uint32) *Node {
	return newNode(KindBox, name, Material{Name: "bbox", Color: color, Wireframe: true})
}

func NewAxes(name string) *Node {
	return newNode(KindAxes, name, Material{Name: "axes"})
}

// MeshFor converts a body into a mesh node with material m.
func MeshFor(b physics.Body, m Material) *Node {
	return NewMesh(fmt.Sprintf("body-%d", b.ID().Index()), b.Shapes(), m)
}

// Count returns the number of instance slots.
func (n *Node) Count() int { return len(n.instances) }

// SetMatrixAt writes slot i. Out-of-range slots are ignored.
func (n *Node) SetMatrixAt(i int, m mgl64.Mat4) {
	if i < 0 || i >= len(n.instances) {
		return
	}
	n.instances[i] = m
}

func (n *Node) MatrixAt(i int) mgl64.Mat4 {
	if i < 0 || i >= len(n.instances) {
		return mgl64.Ident4()
	}
	return n.instances[i]
}

// MarkInstancesDirty flags the buffer for re-upload.
func (n *Node) MarkInstancesDirty() {
	n.needsUpdate = true
	n.dirtyMarks++
}

func (n *Node) InstancesDirty() bool { return n.needsUpdate }

// DirtyMarks counts MarkInstancesDirty calls since the node was created.
func (n *Node) DirtyMarks() int { return n.dirtyMarks }

// ConsumeInstances returns the slot matrices and clears the dirty flag.
// The returned slice is shared with the node and must not be retained.
func (n *Node) ConsumeInstances() ([]mgl64.Mat4, bool) {
	dirty := n.needsUpdate
	n.needsUpdate = false
	return n.instances, dirty
}

// Transform composes position, orientation and scale.
func (n *Node) Transform() mgl64.Mat4 {
	return Compose(n.Position, n.Quaternion, n.Scale)
}

// Compose builds translation × rotation × scale.
func Compose(p mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(p.X(), p.Y(), p.Z()).
		Mul4(Orientation(q).Mat4()).
		Mul4(mgl64.Scale3D(s.X(), s.Y(), s.Z()))
}

// Orientation treats the zero quaternion as identity.
func Orientation(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return q
}
