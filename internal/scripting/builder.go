package scripting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/scene"
)

const bodyTypeName = "body"

// sceneBuilder backs the table handed to a Lua scene function. err keeps the
// first world error so the build fails even if the script ignores it.
type sceneBuilder struct {
	engine *Engine
	ctx    *scene.Context
	title  string
	err    error
}

func (b *sceneBuilder) table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	fns := map[string]lua.LGFunction{
		"add_body":         b.addBody,
		"add_visual":       b.addVisual,
		"add_instanced":    b.addInstanced,
		"distance":         b.distance,
		"point_to_point":   b.pointToPoint,
		"contact_material": b.contactMaterial,
		"gravity":          b.gravity,
		"iterations":       b.iterations,
		"on":               b.on,
		"log":              b.logMsg,
	}
	for name, fn := range fns {
		t.RawSetString(name, L.NewFunction(fn))
	}
	return t
}

// fail records err and raises it as a Lua error.
func (b *sceneBuilder) fail(L *lua.LState, err error) int {
	if b.err == nil {
		b.err = err
	}
	L.RaiseError("%s", err.Error())
	return 0
}

// s:add_body{type=, mass=, position={x,y,z}, velocity=, angular_velocity=,
// material=, trigger=, linear_damping=, angular_damping=, shapes={{kind=, radius=, half_extents=, offset=, normal=}}}
func (b *sceneBuilder) addBody(L *lua.LState) int {
	t := L.CheckTable(2)
	typ, ok := physics.ParseBodyType(lua.LVAsString(t.RawGetString("type")))
	if !ok {
		L.ArgError(2, "unknown body type")
	}
	desc := physics.BodyDesc{
		Type:            typ,
		Mass:            lNum(t, "mass"),
		Position:        lVec(t, "position"),
		Quaternion:      mgl64.QuatIdent(),
		Velocity:        lVec(t, "velocity"),
		AngularVelocity: lVec(t, "angular_velocity"),
		Material:        lStr(t, "material"),
		LinearDamping:   lNum(t, "linear_damping"),
		AngularDamping:  lNum(t, "angular_damping"),
		Trigger:         lua.LVAsBool(t.RawGetString("trigger")),
	}
	shapes, ok := t.RawGetString("shapes").(*lua.LTable)
	if !ok {
		L.ArgError(2, "shapes required")
	}
	var shapeErr error
	shapes.ForEach(func(_, v lua.LValue) {
		st, ok := v.(*lua.LTable)
		if !ok || shapeErr != nil {
			return
		}
		kind, ok := physics.ParseShapeKind(lStr(st, "kind"))
		if !ok {
			shapeErr = fmt.Errorf("unknown shape %q", lStr(st, "kind"))
			return
		}
		s := physics.Shape{
			Kind:        kind,
			Radius:      lNum(st, "radius"),
			HalfExtents: lVec(st, "half_extents"),
			Offset:      lVec(st, "offset"),
			Orientation: mgl64.QuatIdent(),
		}
		if n := lVec(st, "normal"); n.Len() > 0 {
			s.Orientation = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, n.Normalize())
		}
		desc.Shapes = append(desc.Shapes, s)
	})
	if shapeErr != nil {
		L.ArgError(2, shapeErr.Error())
	}

	body, err := b.ctx.World().AddBody(desc)
	if err != nil {
		return b.fail(L, err)
	}
	L.Push(newBody(L, body))
	return 1
}

// s:add_visual(body)
func (b *sceneBuilder) addVisual(L *lua.LState) int {
	if err := b.ctx.AddVisual(checkBody(L, 2)); err != nil {
		return b.fail(L, err)
	}
	return 0
}

// s:add_instanced{body, body, ...}
func (b *sceneBuilder) addInstanced(L *lua.LState) int {
	t := L.CheckTable(2)
	var bodies []physics.Body
	for i := 1; i <= t.Len(); i++ {
		ud, ok := t.RawGetInt(i).(*lua.LUserData)
		if !ok {
			L.ArgError(2, "expected a list of bodies")
		}
		pb, ok := ud.Value.(physics.Body)
		if !ok {
			L.ArgError(2, "expected a list of bodies")
		}
		bodies = append(bodies, pb)
	}
	if err := b.ctx.AddVisualsInstanced(bodies); err != nil {
		return b.fail(L, err)
	}
	return 0
}

// s:distance{a=, b=, anchor={...}, distance=}
func (b *sceneBuilder) distance(L *lua.LState) int {
	t := L.CheckTable(2)
	_, err := b.ctx.World().AddDistanceConstraint(physics.DistanceDesc{
		BodyA:    tableBody(L, t, "a"),
		BodyB:    tableBody(L, t, "b"),
		Anchor:   lVec(t, "anchor"),
		Distance: lNum(t, "distance"),
	})
	if err != nil {
		return b.fail(L, err)
	}
	return 0
}

// s:point_to_point{a=, pivot_a=, b=, pivot_b=}
func (b *sceneBuilder) pointToPoint(L *lua.LState) int {
	t := L.CheckTable(2)
	_, err := b.ctx.World().AddPointToPointConstraint(physics.PointToPointDesc{
		BodyA:  tableBody(L, t, "a"),
		PivotA: lVec(t, "pivot_a"),
		BodyB:  tableBody(L, t, "b"),
		PivotB: lVec(t, "pivot_b"),
	})
	if err != nil {
		return b.fail(L, err)
	}
	return 0
}

// s:contact_material(a, b, friction, restitution)
func (b *sceneBuilder) contactMaterial(L *lua.LState) int {
	b.ctx.World().AddContactMaterial(L.CheckString(2), L.CheckString(3), float64(L.CheckNumber(4)), float64(L.CheckNumber(5)))
	return 0
}

// s:gravity(x, y, z)
func (b *sceneBuilder) gravity(L *lua.LState) int {
	b.ctx.World().SetGravity(mgl64.Vec3{float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), float64(L.CheckNumber(4))})
	return 0
}

// s:iterations(n)
func (b *sceneBuilder) iterations(L *lua.LState) int {
	n := L.CheckInt(2)
	if n < 1 {
		L.ArgError(2, "iterations must be positive")
	}
	b.ctx.World().Solver().SetIterations(n)
	return 0
}

// s:on(kind, fn) subscribes fn for the lifetime of the scene.
func (b *sceneBuilder) on(L *lua.LState) int {
	name := L.CheckString(2)
	fn := L.CheckFunction(3)
	kind, ok := event.ParseKind(name)
	if !ok {
		L.ArgError(2, fmt.Sprintf("unknown event %q", name))
	}
	log := b.engine.log
	vm := b.engine.vm
	_, err := b.ctx.On(kind, func(ev event.Event) {
		if err := vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, lua.LString(ev.Kind.String())); err != nil {
			log.Error("lua scene handler error",
				zap.String("scene", b.title),
				zap.String("event", ev.Kind.String()),
				zap.Error(err))
		}
	})
	if err != nil {
		return b.fail(L, err)
	}
	return 0
}

// s:log(msg)
func (b *sceneBuilder) logMsg(L *lua.LState) int {
	b.engine.log.Info(L.CheckString(2), zap.String("scene", b.title))
	return 0
}

func registerBodyType(L *lua.LState) {
	mt := L.NewTypeMetatable(bodyTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkBody(L, 1).ID().Index()))
			return 1
		},
		"position": func(L *lua.LState) int {
			p := checkBody(L, 1).Position()
			L.Push(lua.LNumber(p.X()))
			L.Push(lua.LNumber(p.Y()))
			L.Push(lua.LNumber(p.Z()))
			return 3
		},
		"set_velocity": func(L *lua.LState) int {
			mb, ok := checkBody(L, 1).(interface{ SetVelocity(mgl64.Vec3) })
			if !ok {
				L.RaiseError("body velocity is read-only")
			}
			mb.SetVelocity(mgl64.Vec3{float64(L.CheckNumber(2)), float64(L.CheckNumber(3)), float64(L.CheckNumber(4))})
			return 0
		},
	}))
}

func newBody(L *lua.LState, b physics.Body) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = b
	L.SetMetatable(ud, L.GetTypeMetatable(bodyTypeName))
	return ud
}

func checkBody(L *lua.LState, n int) physics.Body {
	ud := L.CheckUserData(n)
	if b, ok := ud.Value.(physics.Body); ok {
		return b
	}
	L.ArgError(n, "body expected")
	return nil
}

// tableBody reads an optional body field; nil means absent.
func tableBody(L *lua.LState, t *lua.LTable, key string) physics.Body {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return nil
	}
	if ud, ok := v.(*lua.LUserData); ok {
		if b, ok := ud.Value.(physics.Body); ok {
			return b
		}
	}
	L.RaiseError("field %q is not a body", key)
	return nil
}

// --- Lua helpers ---

// lNum reads a number field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return ""
	}
	return lua.LVAsString(v)
}

// lVec reads a {x, y, z} field; missing entries are zero.
func lVec(t *lua.LTable, key string) mgl64.Vec3 {
	vt, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{
		float64(lua.LVAsNumber(vt.RawGetInt(1))),
		float64(lua.LVAsNumber(vt.RawGetInt(2))),
		float64(lua.LVAsNumber(vt.RawGetInt(3))),
	}
}
