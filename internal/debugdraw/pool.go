// Package debugdraw pools the ephemeral overlay geometry drawn each frame.
//
// Every frame follows the same protocol: Reset, zero or more Acquire, then
// HideAvailable. Afterwards exactly the nodes acquired this frame are in the
// scene and the pool has grown no further than the frame's high-water mark.
package debugdraw

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/core/ecs"
	"github.com/l1jgo/simsync/internal/render"
)

// Epsilon replaces zero components of overlay scale vectors.
const Epsilon = 1e-6

// NonZero replaces every zero component of v with Epsilon.
func NonZero(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		if v[i] == 0 {
			v[i] = Epsilon
		}
	}
	return v
}

// Handle refers to one acquisition of a pooled node. It stops resolving at the
// next Reset, even though the node itself is reused.
type Handle = ecs.ID

type slot struct {
	node       *render.Node
	generation uint32
	active     bool
}

// Pool owns a monotonically growing set of nodes, each either available
// (pooled, hidden after HideAvailable) or active (visible this frame).
type Pool struct {
	name      string
	scene     render.Scene
	factory   func() *render.Node
	slots     []slot
	available []uint32 // slot indices, used as a stack
	active    []uint32
	peak      int
}

func NewPool(name string, scene render.Scene, factory func() *render.Node) *Pool {
	return &Pool{
		name:    name,
		scene:   scene,
		factory: factory,
	}
}

func (p *Pool) Name() string { return p.name }

// Reset moves every active node back to available. Nothing is destroyed or hidden.
func (p *Pool) Reset() {
	for len(p.active) > 0 {
		last := len(p.active) - 1
		idx := p.active[last]
		p.active = p.active[:last]
		s := &p.slots[idx]
		s.active = false
		s.generation++
		p.available = append(p.available, idx)
	}
}

// Acquire pops an available node, or creates one through the factory when
// none remain, marks it active and adds it to the scene.
func (p *Pool) Acquire() (Handle, *render.Node) {
	var idx uint32
	if n := len(p.available); n > 0 {
		idx = p.available[n-1]
		p.available = p.available[:n-1]
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot{node: p.factory()})
	}
	s := &p.slots[idx]
	s.active = true
	p.active = append(p.active, idx)
	if len(p.active) > p.peak {
		p.peak = len(p.active)
	}
	p.scene.Add(s.node)
	return ecs.NewID(idx, s.generation), s.node
}

// Line acquires a node anchored at origin and scaled by a zero-safe vector.
func (p *Pool) Line(origin, scale mgl64.Vec3) *render.Node {
	_, n := p.Acquire()
	n.Position = origin
	n.Scale = NonZero(scale)
	return n
}

// HideAvailable removes every node still available from the scene. Nodes
// acquired since the last Reset stay visible.
func (p *Pool) HideAvailable() {
	for _, idx := range p.available {
		p.scene.Remove(p.slots[idx].node)
	}
}

// Clear is Reset followed by HideAvailable with no acquisitions in between.
func (p *Pool) Clear() {
	p.Reset()
	p.HideAvailable()
}

// Get resolves h. It fails once h's frame has been reset.
func (p *Pool) Get(h Handle) (*render.Node, bool) {
	idx := h.Index()
	if int(idx) >= len(p.slots) {
		return nil, false
	}
	s := p.slots[idx]
	if !s.active || s.generation != h.Generation() {
		return nil, false
	}
	return s.node, true
}

// Cap is the number of nodes ever created. It never decreases.
func (p *Pool) Cap() int { return len(p.slots) }

// Active is the number of nodes acquired since the last Reset.
func (p *Pool) Active() int { return len(p.active) }

// Available is the number of pooled nodes not acquired this frame.
func (p *Pool) Available() int { return len(p.available) }

// Peak is the highest Active count observed.
func (p *Pool) Peak() int { return p.peak }
