package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/core/event"
	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/scene"
	"github.com/l1jgo/simsync/internal/settings"
	"github.com/l1jgo/simsync/internal/sim"
	"github.com/l1jgo/simsync/internal/visual"
)

type noOverlays struct{}

func (noOverlays) ClearDebug() {}

func newEngine(t *testing.T, src string) *Engine {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func managerFor(e *Engine) (*scene.Manager, *sim.World, *render.Graph) {
	s := settings.Defaults()
	g := render.NewGraph()
	w := sim.NewWorld()
	m := scene.NewManager(zap.NewNop(), w, visual.NewRegistry(g), noOverlays{}, &s)
	for _, sc := range e.Scenes() {
		m.Register(sc.Title, sc.Build)
	}
	return m, w, g
}

func TestAddSceneBuildsBodies(t *testing.T) {
	e := newEngine(t, `
add_scene("Pair", function(s)
  s:gravity(0, -9, 0)
  local a = s:add_body{mass = 1, position = {0, 1, 0}, shapes = {{kind = "sphere", radius = 0.5}}}
  local b = s:add_body{mass = 1, position = {2, 1, 0}, shapes = {{kind = "sphere", radius = 0.5}}}
  s:add_visual(a)
  s:add_visual(b)
  s:point_to_point{a = a, pivot_a = {1, 0, 0}, b = b, pivot_b = {-1, 0, 0}}
  s:contact_material("x", "y", 0.2, 0.4)
end)
`)
	if got := e.Scenes(); len(got) != 1 || got[0].Title != "Pair" {
		t.Fatalf("scenes = %+v", got)
	}
	m, w, g := managerFor(e)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(w.Bodies()) != 2 || g.CountKind(render.KindMesh) != 2 {
		t.Errorf("bodies %d meshes %d", len(w.Bodies()), g.CountKind(render.KindMesh))
	}
	if len(w.Constraints()) != 1 || len(w.ContactMaterials()) != 1 {
		t.Errorf("constraints %d materials %d", len(w.Constraints()), len(w.ContactMaterials()))
	}
	if m.Settings().GY != -9 {
		t.Errorf("gravity read back %v", m.Settings().GY)
	}
}

func TestLuaErrorBreaksScene(t *testing.T) {
	e := newEngine(t, `
add_scene("Bad", function(s)
  s:add_body{mass = 1, shapes = {{kind = "torus"}}}
end)
`)
	m, _, _ := managerFor(e)
	err := m.Start()
	if !errors.Is(err, scene.ErrBuildFailed) {
		t.Fatalf("expected ErrBuildFailed, got %v", err)
	}
	if m.Broken() == nil {
		t.Fatal("manager should be broken")
	}
}

func TestWorldErrorSurvivesPcall(t *testing.T) {
	e := newEngine(t, `
add_scene("Swallowed", function(s)
  pcall(function() s:add_instanced{} end)
end)
`)
	m, _, _ := managerFor(e)
	if err := m.Start(); !errors.Is(err, visual.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestHandlersDroppedOnChange(t *testing.T) {
	e := newEngine(t, `
calls = 0
add_scene("A", function(s)
  s:on("preStep", function(kind) calls = calls + 1 end)
end)
add_scene("B", function(s) end)
`)
	m, _, _ := managerFor(e)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	m.Emit(event.PreStep)
	if err := m.Change(1); err != nil {
		t.Fatal(err)
	}
	m.Emit(event.PreStep)
	if got := e.vm.GetGlobal("calls").String(); got != "1" {
		t.Errorf("calls = %s, want 1", got)
	}
}

func TestUnknownEventRejected(t *testing.T) {
	e := newEngine(t, `
add_scene("E", function(s) s:on("explode", function() end) end)
`)
	m, _, _ := managerFor(e)
	if err := m.Start(); err == nil {
		t.Fatal("expected build failure")
	}
}

func TestSampleScripts(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "config", "scripts"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()
	m, w, _ := managerFor(e)
	if m.Len() != 2 {
		t.Fatalf("scenes = %d, want 2", m.Len())
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(w.Constraints()) != 6 {
		t.Errorf("chain constraints = %d, want 6", len(w.Constraints()))
	}
	if err := m.Change(1); err != nil {
		t.Fatalf("Change: %v", err)
	}
	for i := 0; i < 60; i++ {
		m.Emit(event.PreStep)
		w.FixedStep(1.0 / 60)
	}
	if m.Listeners() != 1 {
		t.Errorf("listeners = %d, want 1", m.Listeners())
	}
}
