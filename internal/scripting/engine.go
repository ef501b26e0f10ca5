package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/scene"
)

// Engine wraps a single gopher-lua VM holding scene builder scripts.
// Single-goroutine access only (frame loop): builders and their event
// handlers run on the goroutine that drives the scene manager.
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	scenes []scene.Scene
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
// Scripts register scenes by calling add_scene(title, fn).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	registerBodyType(vm)
	vm.SetGlobal("add_scene", vm.NewFunction(e.addScene))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scene scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs src as one more script.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Scenes returns the scenes registered so far, in registration order.
func (e *Engine) Scenes() []scene.Scene {
	return append([]scene.Scene(nil), e.scenes...)
}

// add_scene(title, fn)
func (e *Engine) addScene(L *lua.LState) int {
	title := L.CheckString(1)
	fn := L.CheckFunction(2)
	e.scenes = append(e.scenes, scene.Scene{Title: title, Build: e.builder(title, fn)})
	return 0
}

// builder adapts a Lua function into a scene builder. The function receives
// the builder table; a Lua error fails the build.
func (e *Engine) builder(title string, fn *lua.LFunction) scene.Builder {
	return func(ctx *scene.Context) error {
		b := &sceneBuilder{engine: e, ctx: ctx, title: title}
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, b.table(e.vm)); err != nil {
			return fmt.Errorf("lua scene %q: %w", title, err)
		}
		return b.err
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
