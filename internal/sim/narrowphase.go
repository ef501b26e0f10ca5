package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/simsync/internal/physics"
)

// contact is a narrow-phase result with the penetration depth the solver needs.
type contact struct {
	physics.Contact
	a, b  *Body
	depth float64
	// vn is the normal relative velocity before solving, negative when approaching.
	vn float64
}

// collidable reports whether a pair can produce a contact at all.
func collidable(a, b *Body) bool {
	if a == b {
		return false
	}
	if a.typ != physics.Dynamic && b.typ != physics.Dynamic {
		return false
	}
	return true
}

// broadphase returns every candidate pair whose AABBs overlap.
func broadphase(bodies []*Body) [][2]*Body {
	var pairs [][2]*Body
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			if !collidable(a, b) {
				continue
			}
			if a.aabbStale {
				a.UpdateAABB()
			}
			if b.aabbStale {
				b.UpdateAABB()
			}
			if !overlaps(a.aabb, b.aabb) {
				continue
			}
			pairs = append(pairs, [2]*Body{a, b})
		}
	}
	return pairs
}

func overlaps(a, b physics.AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Upper[i] < b.Lower[i] || b.Upper[i] < a.Lower[i] {
			return false
		}
	}
	return true
}

// narrowphase tests every shape pair of a and b. Unsupported shape pairs,
// such as box against box, produce no contacts.
func narrowphase(a, b *Body, out []contact) []contact {
	for _, sa := range a.shapes {
		for _, sb := range b.shapes {
			ca, qa := a.worldShape(sa)
			cb, qb := b.worldShape(sb)
			if point, n, depth, ok := collide(sa, ca, qa, sb, cb, qb); ok {
				out = append(out, newContact(a, b, point, n, depth))
				continue
			}
			if point, n, depth, ok := collide(sb, cb, qb, sa, ca, qa); ok {
				out = append(out, newContact(a, b, point, n.Mul(-1), depth))
			}
		}
	}
	return out
}

func newContact(a, b *Body, point, n mgl64.Vec3, depth float64) contact {
	return contact{
		Contact: physics.Contact{
			BodyA:  a,
			BodyB:  b,
			RA:     point.Sub(a.pos),
			RB:     point.Sub(b.pos),
			Normal: n,
		},
		a:     a,
		b:     b,
		depth: depth,
		vn:    b.vel.Sub(a.vel).Dot(n),
	}
}

// collide handles the ordered shape pairs (x, y) it knows. The normal points
// from x to y and point lies on y's surface.
func collide(x physics.Shape, cx mgl64.Vec3, qx mgl64.Quat, y physics.Shape, cy mgl64.Vec3, qy mgl64.Quat) (point, n mgl64.Vec3, depth float64, ok bool) {
	rx, roundX := radius(x)
	ry, roundY := radius(y)
	switch {
	case roundX && roundY:
		delta := cy.Sub(cx)
		dist := delta.Len()
		depth = rx + ry - dist
		if depth <= 0 || (rx == 0 && ry == 0) {
			return
		}
		n = mgl64.Vec3{0, 1, 0}
		if dist > 0 {
			n = delta.Mul(1 / dist)
		}
		return cy.Sub(n.Mul(ry)), n, depth, true

	case x.Kind == physics.ShapePlane && roundY:
		up := qx.Rotate(planeNormal)
		h := cy.Sub(cx).Dot(up)
		depth = ry - h
		if depth <= 0 {
			return
		}
		// normal from plane into the round body
		return cy.Sub(up.Mul(ry)), up, depth, true

	case x.Kind == physics.ShapePlane && y.Kind == physics.ShapeBox:
		up := qx.Rotate(planeNormal)
		for _, corner := range boxCorners(y.HalfExtents) {
			p := cy.Add(qy.Rotate(corner))
			if d := -p.Sub(cx).Dot(up); d > depth {
				depth, point = d, p
			}
		}
		if depth <= 0 {
			return
		}
		return point, up, depth, true
	}
	return
}

// radius reports whether s is round (a sphere or a particle) and its radius.
func radius(s physics.Shape) (float64, bool) {
	switch s.Kind {
	case physics.ShapeSphere:
		return s.Radius, true
	case physics.ShapeParticle:
		return 0, true
	}
	return 0, false
}

func boxCorners(h mgl64.Vec3) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		c := h
		if i&1 != 0 {
			c[0] = -c[0]
		}
		if i&2 != 0 {
			c[1] = -c[1]
		}
		if i&4 != 0 {
			c[2] = -c[2]
		}
		out[i] = c
	}
	return out
}
