// Package viewer draws the retained scene graph in a native raylib window.
package viewer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/config"
	"github.com/l1jgo/simsync/internal/demo"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
)

// Viewer owns the window. All calls must come from the goroutine that
// created it (raylib is bound to one OS thread).
type Viewer struct {
	demo    *demo.Demo
	camera  rl.Camera3D
	showHUD bool
	log     *zap.Logger
}

func New(cfg config.ViewerConfig, d *demo.Demo, log *zap.Logger) *Viewer {
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), cfg.Title)
	rl.SetTargetFPS(int32(cfg.TargetFPS))
	rl.SetExitKey(0)
	return &Viewer{
		demo: d,
		camera: rl.NewCamera3D(
			rl.NewVector3(0, 20, 30),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			24.0,
			rl.CameraPerspective,
		),
		showHUD: true,
		log:     log,
	}
}

// ShouldClose reports whether the user closed the window.
func (v *Viewer) ShouldClose() bool { return rl.WindowShouldClose() }

func (v *Viewer) Close() { rl.CloseWindow() }

// HandleInput forwards typed characters to the demo's shortcuts and moves
// the camera. h toggles the HUD.
func (v *Viewer) HandleInput() {
	for r := rl.GetCharPressed(); r != 0; r = rl.GetCharPressed() {
		if r == 'h' || r == 'H' {
			v.showHUD = !v.showHUD
			continue
		}
		if _, err := v.demo.KeyPress(rune(r)); err != nil {
			v.log.Warn("shortcut failed", zap.String("key", string(rune(r))), zap.Error(err))
		}
	}
	v.moveCamera()
}

// moveCamera pans with the right mouse button and zooms toward the target
// with the wheel, stopping minZoom short of it.
func (v *Viewer) moveCamera() {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		v.camera.Position.X -= delta.X * panSpeed
		v.camera.Position.Y += delta.Y * panSpeed
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		zoom := wheel * zoomSpeed
		diff := rl.Vector3Subtract(v.camera.Target, v.camera.Position)
		if rl.Vector3Length(diff) > minZoom || zoom < 0 {
			v.camera.Position = rl.Vector3Add(v.camera.Position, rl.Vector3Scale(rl.Vector3Normalize(diff), zoom))
		}
	}
}

// Draw renders one frame of the graph.
func (v *Viewer) Draw() {
	g := v.demo.Graph()
	rl.BeginDrawing()
	rl.ClearBackground(color(background))

	rl.BeginMode3D(v.camera)
	g.Each(drawNode)
	rl.EndMode3D()

	if v.showHUD {
		v.drawHUD()
	}
	rl.EndDrawing()
}

func (v *Viewer) drawHUD() {
	s := v.demo.Settings()
	titles := v.demo.Titles()
	title := ""
	if c := v.demo.Current(); c >= 0 && c < len(titles) {
		title = titles[c]
	}
	rl.DrawText(fmt.Sprintf("%d: %s", v.demo.Current()+1, title), 10, 10, 20, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("%s  %d Hz  paused=%v", s.RenderMode, s.StepFrequency, s.Paused), 10, 34, 16, rl.LightGray)
	if err := v.demo.Broken(); err != nil {
		rl.DrawText(err.Error(), 10, 56, 16, rl.Red)
	}
	rl.DrawFPS(10, int32(rl.GetScreenHeight())-24)
}

func color(c uint32) rl.Color {
	return rl.NewColor(uint8(c>>16), uint8(c>>8), uint8(c), 255)
}

func vec(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

// pushTransform applies translation p and rotation q to the matrix stack.
func pushTransform(p mgl64.Vec3, q mgl64.Quat) {
	rl.PushMatrix()
	rl.Translatef(float32(p.X()), float32(p.Y()), float32(p.Z()))
	q = q.Normalize()
	angle := 2 * math.Acos(math.Max(-1, math.Min(1, q.W)))
	if axis := q.V; axis.Len() > 1e-9 {
		axis = axis.Normalize()
		rl.Rotatef(float32(mgl64.RadToDeg(angle)), float32(axis.X()), float32(axis.Y()), float32(axis.Z()))
	}
}

func drawNode(n *render.Node) {
	c := color(n.Material.Color)
	switch n.Kind {
	case render.KindMesh:
		pushTransform(n.Position, n.Quaternion)
		drawParts(n.Parts, c, n.Material.Wireframe)
		rl.PopMatrix()
	case render.KindInstanced:
		for i := 0; i < n.Count(); i++ {
			m := n.MatrixAt(i)
			pushTransform(m.Col(3).Vec3(), mgl64.Mat4ToQuat(m))
			drawParts(n.Parts, c, n.Material.Wireframe)
			rl.PopMatrix()
		}
	case render.KindLine:
		rl.DrawLine3D(vec(n.Position), vec(n.Position.Add(n.Scale)), c)
	case render.KindPoint:
		rl.DrawSphere(vec(n.Position), float32(n.Scale.X()), c)
	case render.KindBox:
		rl.DrawCubeWiresV(vec(n.Position), vec(n.Scale), c)
	case render.KindAxes:
		pushTransform(n.Position, n.Quaternion)
		rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(1, 0, 0), rl.Red)
		rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), rl.Green)
		rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(0, 0, 1), rl.Blue)
		rl.PopMatrix()
	}
}

const (
	background     = 0x222222
	particleRadius = 0.05 // drawn size of a particle

	panSpeed  = 0.05
	zoomSpeed = 2.0
	minZoom   = 3.0
)

func drawParts(parts []physics.Shape, c rl.Color, wire bool) {
	for _, s := range parts {
		pushTransform(s.Offset, s.Orientation)
		origin := rl.NewVector3(0, 0, 0)
		switch s.Kind {
		case physics.ShapeSphere:
			if wire {
				rl.DrawSphereWires(origin, float32(s.Radius), 12, 12, c)
			} else {
				rl.DrawSphere(origin, float32(s.Radius), c)
			}
		case physics.ShapeParticle:
			rl.DrawSphere(origin, particleRadius, c)
		case physics.ShapeBox:
			size := vec(s.HalfExtents.Mul(2))
			if wire {
				rl.DrawCubeWiresV(origin, size, c)
			} else {
				rl.DrawCubeV(origin, size, c)
			}
		case physics.ShapeCylinder:
			h := float32(s.HalfExtents.Y())
			base := rl.NewVector3(0, -h, 0)
			if wire {
				rl.DrawCylinderWires(base, float32(s.Radius), float32(s.Radius), 2*h, 16, c)
			} else {
				rl.DrawCylinder(base, float32(s.Radius), float32(s.Radius), 2*h, 16, c)
			}
		case physics.ShapePlane:
			// raylib planes face +Y, plane shapes face local +Z
			rl.Rotatef(90, 1, 0, 0)
			rl.DrawPlane(origin, rl.NewVector2(40, 40), c)
		}
		rl.PopMatrix()
	}
}
