// Package frame reconciles the simulation with the render graph once per frame.
package frame

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/debugdraw"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/visual"
)

// Overlay pool names, also used as node names.
const (
	PoolContacts    = "contacts"
	PoolCM2Contact  = "cm2contact"
	PoolConstraints = "constraints"
	PoolNormals     = "normals"
	PoolAxes        = "axes"
	PoolAABBs       = "aabbs"
)

// pointScale is the radius of contact point markers.
const pointScale = 0.1

var unitScale = mgl64.Vec3{1, 1, 1}

// Synchronizer reads the world and writes proxies and overlay pools. It only
// reads the world, except for refreshing stale body AABBs.
type Synchronizer struct {
	registry *visual.Registry

	contacts    *debugdraw.Pool
	cm2contact  *debugdraw.Pool
	constraints *debugdraw.Pool
	normals     *debugdraw.Pool
	axes        *debugdraw.Pool
	aabbs       *debugdraw.Pool

	dirty []*render.Node // reused between frames
}

func New(scene render.Scene, registry *visual.Registry) *Synchronizer {
	return &Synchronizer{
		registry: registry,
		contacts: debugdraw.NewPool(PoolContacts, scene, func() *render.Node {
			n := render.NewPoint(PoolContacts, render.ContactColor)
			n.Scale = mgl64.Vec3{pointScale, pointScale, pointScale}
			return n
		}),
		cm2contact: debugdraw.NewPool(PoolCM2Contact, scene, func() *render.Node {
			return render.NewLine(PoolCM2Contact, render.LineColor)
		}),
		constraints: debugdraw.NewPool(PoolConstraints, scene, func() *render.Node {
			return render.NewLine(PoolConstraints, render.ConstraintColor)
		}),
		normals: debugdraw.NewPool(PoolNormals, scene, func() *render.Node {
			return render.NewLine(PoolNormals, render.NormalColor)
		}),
		axes: debugdraw.NewPool(PoolAxes, scene, func() *render.Node {
			return render.NewAxes(PoolAxes)
		}),
		aabbs: debugdraw.NewPool(PoolAABBs, scene, func() *render.Node {
			return render.NewBox(PoolAABBs, render.BoundsColor)
		}),
	}
}

// Pools returns the overlay pools in drawing order.
func (s *Synchronizer) Pools() []*debugdraw.Pool {
	return []*debugdraw.Pool{s.contacts, s.cm2contact, s.constraints, s.normals, s.axes, s.aabbs}
}

// Sync copies body transforms into proxies and redraws every overlay.
func (s *Synchronizer) Sync(w physics.World, paused bool, t settings.Toggles) {
	s.Transforms(paused)
	s.Overlays(w, t)
}

// Transforms writes each body's render transform into its proxy. Instanced
// buffers are marked dirty once per call.
func (s *Synchronizer) Transforms(paused bool) {
	s.dirty = s.dirty[:0]
	s.registry.Each(func(b physics.Body, p visual.Proxy) {
		pos, quat := physics.RenderTransform(b, paused)
		if !p.Instanced() {
			p.Node.Position = pos
			p.Node.Quaternion = render.Orientation(quat)
			return
		}
		p.Node.SetMatrixAt(p.Slot, render.Compose(pos, quat, unitScale))
		s.markOnce(p.Node)
	})
	for _, n := range s.dirty {
		n.MarkInstancesDirty()
	}
}

func (s *Synchronizer) markOnce(n *render.Node) {
	for _, d := range s.dirty {
		if d == n {
			return
		}
	}
	s.dirty = append(s.dirty, n)
}

// Overlays runs the pool protocol on all six pools, acquiring only for the
// categories enabled in t.
func (s *Synchronizer) Overlays(w physics.World, t settings.Toggles) {
	contacts := w.Contacts()

	s.contacts.Reset()
	if t.Contacts {
		for _, c := range contacts {
			_, a := s.contacts.Acquire()
			a.Position = c.BodyA.Position().Add(c.RA)
			_, b := s.contacts.Acquire()
			b.Position = c.BodyB.Position().Add(c.RB)
		}
	}
	s.contacts.HideAvailable()

	s.cm2contact.Reset()
	if t.CM2Contact {
		for _, c := range contacts {
			s.cm2contact.Line(c.BodyA.Position(), c.RA)
			s.cm2contact.Line(c.BodyB.Position(), c.RB)
		}
	}
	s.cm2contact.HideAvailable()

	s.constraints.Reset()
	if t.Constraints {
		d := poolDrawer{s.constraints}
		for _, c := range w.Constraints() {
			if dd, ok := c.(physics.DebugDrawable); ok {
				dd.DrawDebug(d)
			}
		}
	}
	s.constraints.HideAvailable()

	s.normals.Reset()
	if t.Normals {
		for _, c := range contacts {
			s.normals.Line(c.BodyA.Position().Add(c.RA), c.Normal)
		}
	}
	s.normals.HideAvailable()

	s.axes.Reset()
	if t.Axes {
		s.registry.Each(func(b physics.Body, _ visual.Proxy) {
			_, n := s.axes.Acquire()
			n.Position = b.Position()
			n.Quaternion = render.Orientation(b.Quaternion())
		})
	}
	s.axes.HideAvailable()

	s.aabbs.Reset()
	if t.AABBs {
		s.registry.Each(func(b physics.Body, _ visual.Proxy) {
			bb, ok := b.(physics.Bounded)
			if !ok {
				return
			}
			if bb.AABBNeedsUpdate() {
				bb.UpdateAABB()
			}
			box := bb.AABB()
			if !box.Drawable() {
				return
			}
			_, n := s.aabbs.Acquire()
			n.Position = box.Center()
			n.Scale = box.Size()
		})
	}
	s.aabbs.HideAvailable()
}

// ClearDebug returns every pool to the all-hidden state.
func (s *Synchronizer) ClearDebug() {
	for _, p := range s.Pools() {
		p.Clear()
	}
}

type poolDrawer struct{ pool *debugdraw.Pool }

func (d poolDrawer) Line(origin, scale mgl64.Vec3) { d.pool.Line(origin, scale) }
