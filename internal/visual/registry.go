// Package visual pairs simulation bodies with their render proxies.
package visual

import (
	"errors"
	"fmt"
	"slices"

	"github.com/l1jgo/simsync/internal/core/ecs"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Proxy is what renders one body: an owned mesh, or slot Slot of a shared
// instanced buffer. Slot is -1 for owned meshes.
type Proxy struct {
	Node *render.Node
	Slot int
}

func (p Proxy) Instanced() bool { return p.Slot >= 0 }

// Registry keeps bodies and proxies in two parallel lists of equal length;
// index i of one corresponds to index i of the other.
type Registry struct {
	scene   render.Scene
	bodies  []physics.Body
	proxies []Proxy
	slots   *ecs.Store[int]
	groups  map[*render.Node]int // instanced node → member count
}

func NewRegistry(scene render.Scene) *Registry {
	return &Registry{
		scene:  scene,
		slots:  ecs.NewStore[int](),
		groups: make(map[*render.Node]int),
	}
}

// Pair adds an individually owned mesh for b and puts it in the scene.
func (r *Registry) Pair(b physics.Body, n *render.Node) error {
	if b == nil || n == nil {
		return fmt.Errorf("pair: %w: nil body or proxy", ErrInvalidArgument)
	}
	if n.Kind != render.KindMesh {
		return fmt.Errorf("pair: %w: proxy is a %s, not a mesh", ErrInvalidArgument, n.Kind)
	}
	if r.IndexOf(b.ID()) >= 0 {
		return fmt.Errorf("pair: %w: body %d already paired", ErrInvalidArgument, b.ID().Index())
	}
	if slices.ContainsFunc(r.proxies, func(p Proxy) bool { return p.Node == n }) {
		return fmt.Errorf("pair: %w: mesh %q already owned by another body", ErrInvalidArgument, n.Name)
	}
	r.bodies = append(r.bodies, b)
	r.proxies = append(r.proxies, Proxy{Node: n, Slot: -1})
	r.scene.Add(n)
	return nil
}

// PairInstanced gives every body one slot of n, in order. All bodies must
// share type and shapes. On error nothing is changed.
func (r *Registry) PairInstanced(bodies []physics.Body, n *render.Node) error {
	if len(bodies) == 0 {
		return fmt.Errorf("pair instanced: %w: no bodies", ErrInvalidArgument)
	}
	if n == nil || n.Kind != render.KindInstanced {
		return fmt.Errorf("pair instanced: %w: proxy is not an instanced buffer", ErrInvalidArgument)
	}
	if n.Count() < len(bodies) {
		return fmt.Errorf("pair instanced: %w: buffer has %d slots for %d bodies", ErrInvalidArgument, n.Count(), len(bodies))
	}
	if _, ok := r.groups[n]; ok {
		return fmt.Errorf("pair instanced: %w: buffer already paired", ErrInvalidArgument)
	}
	seen := make(map[ecs.ID]struct{}, len(bodies))
	for i, b := range bodies {
		if b == nil {
			return fmt.Errorf("pair instanced: %w: body %d is nil", ErrInvalidArgument, i)
		}
		if !physics.SameShape(bodies[0], b) {
			return fmt.Errorf("pair instanced: %w: body %d differs in type or shape", ErrInvalidArgument, i)
		}
		if _, dup := seen[b.ID()]; dup || r.IndexOf(b.ID()) >= 0 {
			return fmt.Errorf("pair instanced: %w: body %d already paired", ErrInvalidArgument, i)
		}
		seen[b.ID()] = struct{}{}
	}

	for i, b := range bodies {
		r.bodies = append(r.bodies, b)
		r.proxies = append(r.proxies, Proxy{Node: n, Slot: i})
		r.slots.Set(b.ID(), i)
	}
	r.groups[n] = len(bodies)
	r.scene.Add(n)
	return nil
}

// Unpair removes the body with id and its mesh. Unknown ids are a no-op.
// Members of an instanced group can only leave with the whole group.
func (r *Registry) Unpair(id ecs.ID) error {
	i := r.IndexOf(id)
	if i < 0 {
		return nil
	}
	p := r.proxies[i]
	if p.Instanced() {
		return fmt.Errorf("unpair: %w: body %d is slot %d of an instanced group", ErrInvalidArgument, id.Index(), p.Slot)
	}
	r.bodies = slices.Delete(r.bodies, i, i+1)
	r.proxies = slices.Delete(r.proxies, i, i+1)
	r.scene.Remove(p.Node)
	return nil
}

// UnpairGroup removes every member of the instanced buffer n and the buffer
// itself. Returns the removed bodies in pairing order.
func (r *Registry) UnpairGroup(n *render.Node) []physics.Body {
	if _, ok := r.groups[n]; !ok {
		return nil
	}
	var removed []physics.Body
	keep := 0
	for i := range r.bodies {
		if r.proxies[i].Node == n {
			removed = append(removed, r.bodies[i])
			r.slots.Remove(r.bodies[i].ID())
			continue
		}
		r.bodies[keep] = r.bodies[i]
		r.proxies[keep] = r.proxies[i]
		keep++
	}
	clear(r.bodies[keep:])
	clear(r.proxies[keep:])
	r.bodies = r.bodies[:keep]
	r.proxies = r.proxies[:keep]
	delete(r.groups, n)
	r.scene.Remove(n)
	return removed
}

// UnpairAll empties the registry, removes every proxy from the scene and
// returns the bodies that were paired.
func (r *Registry) UnpairAll() []physics.Body {
	removed := slices.Clone(r.bodies)
	for _, p := range r.proxies {
		r.scene.Remove(p.Node)
	}
	clear(r.bodies)
	clear(r.proxies)
	r.bodies = r.bodies[:0]
	r.proxies = r.proxies[:0]
	r.slots.Clear()
	clear(r.groups)
	return removed
}

// IndexOf returns the pairing index of id, or -1.
func (r *Registry) IndexOf(id ecs.ID) int {
	for i, b := range r.bodies {
		if b.ID() == id {
			return i
		}
	}
	return -1
}

// Slot returns the instanced slot stored for id.
func (r *Registry) Slot(id ecs.ID) (int, bool) {
	return r.slots.Get(id)
}

func (r *Registry) Len() int { return len(r.bodies) }

func (r *Registry) Body(i int) physics.Body { return r.bodies[i] }

func (r *Registry) Proxy(i int) Proxy { return r.proxies[i] }

// Each visits pairings in order.
func (r *Registry) Each(fn func(b physics.Body, p Proxy)) {
	for i := range r.bodies {
		fn(r.bodies[i], r.proxies[i])
	}
}

// Bodies returns a copy of the paired bodies in order.
func (r *Registry) Bodies() []physics.Body {
	return slices.Clone(r.bodies)
}
