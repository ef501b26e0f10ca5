package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/config"
	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/data"
	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/scene"
	"github.com/l1jgo/simsync/internal/scripting"
	"github.com/l1jgo/simsync/internal/sim"
)

// loadScenes gathers built-in, YAML and Lua scenes in that order. The
// returned func releases the Lua VM and must outlive every scene build.
func loadScenes(cfg config.ScenesConfig, log *zap.Logger) ([]scene.Scene, func(), error) {
	scenes := builtinScenes()

	yamlScenes, err := data.LoadScenes(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load yaml scenes: %w", err)
	}
	scenes = append(scenes, yamlScenes...)

	engine, err := scripting.NewEngine(cfg.ScriptsDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("load lua scenes: %w", err)
	}
	scenes = append(scenes, engine.Scenes()...)
	return scenes, engine.Close, nil
}

func builtinScenes() []scene.Scene {
	return []scene.Scene{
		{Title: "Boxes", Build: buildBoxes},
		{Title: "Trigger", Build: buildTrigger},
	}
}

func addGround(ctx *scene.Context) (physics.Body, error) {
	ground, err := ctx.World().AddBody(physics.BodyDesc{
		Type:       physics.Static,
		Quaternion: sim.PlaneOrientation(mgl64.Vec3{0, 1, 0}),
		Shapes:     []physics.Shape{{Kind: physics.ShapePlane}},
		Material:   "ground",
	})
	if err != nil {
		return nil, err
	}
	return ground, ctx.AddVisual(ground)
}

// buildBoxes drops a row of tilted boxes onto the ground.
func buildBoxes(ctx *scene.Context) error {
	w := ctx.World()
	w.SetGravity(mgl64.Vec3{0, -10, 0})
	w.AddContactMaterial("ground", "box", 0.4, 0.1)
	if _, err := addGround(ctx); err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		b, err := w.AddBody(physics.BodyDesc{
			Mass:       1,
			Position:   mgl64.Vec3{float64(i)*1.5 - 3, 2 + float64(i), 0},
			Quaternion: mgl64.QuatRotate(0.3*float64(i), mgl64.Vec3{0, 0, 1}),
			Shapes:     []physics.Shape{{Kind: physics.ShapeBox, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}},
			Material:   "box",
		})
		if err != nil {
			return err
		}
		if err := ctx.AddVisual(b); err != nil {
			return err
		}
	}
	return nil
}

// buildTrigger drops a ball through a trigger volume and logs when it
// enters and leaves.
func buildTrigger(ctx *scene.Context) error {
	w := ctx.World()
	w.SetGravity(mgl64.Vec3{0, -10, 0})
	if _, err := addGround(ctx); err != nil {
		return err
	}
	trigger, err := w.AddBody(physics.BodyDesc{
		Type:     physics.Static,
		Position: mgl64.Vec3{0, 2, 0},
		Shapes:   []physics.Shape{{Kind: physics.ShapeSphere, Radius: 1}},
		Trigger:  true,
	})
	if err != nil {
		return err
	}
	ball, err := w.AddBody(physics.BodyDesc{
		Mass:     1,
		Position: mgl64.Vec3{0, 6, 0},
		Shapes:   []physics.Shape{{Kind: physics.ShapeSphere, Radius: 0.3}},
	})
	if err != nil {
		return err
	}
	if err := ctx.AddVisuals([]physics.Body{trigger, ball}); err != nil {
		return err
	}

	inside := false
	_, err = ctx.On(event.PostStep, func(event.Event) {
		overlap := false
		for _, c := range w.Contacts() {
			if c.BodyA == trigger || c.BodyB == trigger {
				overlap = true
				break
			}
		}
		if overlap != inside {
			inside = overlap
			ctx.Log().Info("trigger overlap", zap.Bool("inside", inside))
		}
	})
	return err
}
