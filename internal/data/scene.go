package data

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/scene"
)

var ErrInvalidScene = errors.New("invalid scene definition")

// SceneDef is one declarative scene file.
type SceneDef struct {
	Title            string            `yaml:"title"`
	Gravity          []float64         `yaml:"gravity"`
	Solver           *SolverDef        `yaml:"solver"`
	QuatNormalize    *QuatNormalizeDef `yaml:"quat_normalize"`
	ContactMaterials []ContactDef      `yaml:"contact_materials"`
	Bodies           []BodyDef         `yaml:"bodies"`
	Constraints      []ConstraintDef   `yaml:"constraints"`
}

type SolverDef struct {
	Iterations int     `yaml:"iterations"`
	Tolerance  float64 `yaml:"tolerance"`
}

type QuatNormalizeDef struct {
	Skip int  `yaml:"skip"`
	Fast bool `yaml:"fast"`
}

type ContactDef struct {
	A           string  `yaml:"a"`
	B           string  `yaml:"b"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// BodyDef describes one body, or a grid of identical bodies when Grid is set.
type BodyDef struct {
	Name            string     `yaml:"name"`
	Type            string     `yaml:"type"`
	Mass            float64    `yaml:"mass"`
	Position        []float64  `yaml:"position"`
	Rotation        *RotDef    `yaml:"rotation"`
	Velocity        []float64  `yaml:"velocity"`
	AngularVelocity []float64  `yaml:"angular_velocity"`
	Material        string     `yaml:"material"`
	LinearDamping   float64    `yaml:"linear_damping"`
	AngularDamping  float64    `yaml:"angular_damping"`
	Trigger         bool       `yaml:"trigger"`
	Shapes          []ShapeDef `yaml:"shapes"`
	Visual          *bool      `yaml:"visual"`
	Instanced       bool       `yaml:"instanced"`
	Grid            *GridDef   `yaml:"grid"`
}

// RotDef is an axis and an angle in degrees.
type RotDef struct {
	Axis  []float64 `yaml:"axis"`
	Angle float64   `yaml:"angle"`
}

type ShapeDef struct {
	Kind        string    `yaml:"kind"`
	Radius      float64   `yaml:"radius"`
	HalfExtents []float64 `yaml:"half_extents"`
	Offset      []float64 `yaml:"offset"`
	Normal      []float64 `yaml:"normal"`
}

// GridDef repeats a body Count[0] x Count[1] x Count[2] times, Spacing apart,
// starting at the body position.
type GridDef struct {
	Count   []int   `yaml:"count"`
	Spacing float64 `yaml:"spacing"`
}

type ConstraintDef struct {
	Kind     string    `yaml:"kind"`
	A        string    `yaml:"a"`
	B        string    `yaml:"b"`
	Distance float64   `yaml:"distance"`
	Anchor   []float64 `yaml:"anchor"`
	PivotA   []float64 `yaml:"pivot_a"`
	PivotB   []float64 `yaml:"pivot_b"`
}

// LoadScene reads and validates one scene file. A missing title is derived
// from the file name.
func LoadScene(path string) (*SceneDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var def SceneDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if def.Title == "" {
		def.Title = TitleFromFile(path)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &def, nil
}

// LoadScenes loads every *.yaml file of dir in file-name order.
func LoadScenes(dir string) ([]scene.Scene, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenes: %w", err)
	}
	sort.Strings(paths)
	out := make([]scene.Scene, 0, len(paths))
	for _, p := range paths {
		def, err := LoadScene(p)
		if err != nil {
			return nil, err
		}
		out = append(out, scene.Scene{Title: def.Title, Build: def.Builder()})
	}
	return out, nil
}

// TitleFromFile turns "bouncing_balls.yaml" into "Bouncing Balls".
func TitleFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return cases.Title(language.English).String(base)
}

func vec(v []float64, what string) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return mgl64.Vec3{}, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidScene, what, len(v))
}

// Validate checks names, kinds and vector lengths without building anything.
func (d *SceneDef) Validate() error {
	if _, err := vec(d.Gravity, "gravity"); err != nil {
		return err
	}
	names := make(map[string]bool, len(d.Bodies))
	for i, b := range d.Bodies {
		if _, ok := physics.ParseBodyType(b.Type); !ok {
			return fmt.Errorf("%w: body %d: unknown type %q", ErrInvalidScene, i, b.Type)
		}
		if len(b.Shapes) == 0 {
			return fmt.Errorf("%w: body %d has no shapes", ErrInvalidScene, i)
		}
		for _, s := range b.Shapes {
			if _, err := s.shape(); err != nil {
				return fmt.Errorf("body %d: %w", i, err)
			}
		}
		for _, f := range []struct {
			v    []float64
			name string
		}{{b.Position, "position"}, {b.Velocity, "velocity"}, {b.AngularVelocity, "angular_velocity"}} {
			if _, err := vec(f.v, f.name); err != nil {
				return fmt.Errorf("body %d: %w", i, err)
			}
		}
		if b.Rotation != nil {
			if _, err := b.Rotation.quat(); err != nil {
				return fmt.Errorf("body %d: %w", i, err)
			}
		}
		if b.Grid != nil && (len(b.Grid.Count) != 3 || b.Grid.Count[0] < 1 || b.Grid.Count[1] < 1 || b.Grid.Count[2] < 1) {
			return fmt.Errorf("%w: body %d: grid count must be three positive integers", ErrInvalidScene, i)
		}
		if b.Instanced && b.Grid == nil {
			return fmt.Errorf("%w: body %d: instanced requires a grid", ErrInvalidScene, i)
		}
		if b.Name != "" {
			if names[b.Name] {
				return fmt.Errorf("%w: duplicate body name %q", ErrInvalidScene, b.Name)
			}
			names[b.Name] = true
		}
	}
	for i, c := range d.Constraints {
		if c.Kind != "distance" && c.Kind != "point_to_point" {
			return fmt.Errorf("%w: constraint %d: unknown kind %q", ErrInvalidScene, i, c.Kind)
		}
		if !names[c.A] {
			return fmt.Errorf("%w: constraint %d: unknown body %q", ErrInvalidScene, i, c.A)
		}
		if c.B != "" && !names[c.B] {
			return fmt.Errorf("%w: constraint %d: unknown body %q", ErrInvalidScene, i, c.B)
		}
	}
	return nil
}

func (r *RotDef) quat() (mgl64.Quat, error) {
	axis, err := vec(r.Axis, "rotation axis")
	if err != nil {
		return mgl64.Quat{}, err
	}
	if axis.Len() == 0 {
		return mgl64.Quat{}, fmt.Errorf("%w: rotation axis is zero", ErrInvalidScene)
	}
	return mgl64.QuatRotate(mgl64.DegToRad(r.Angle), axis.Normalize()), nil
}

func (s ShapeDef) shape() (physics.Shape, error) {
	kind, ok := physics.ParseShapeKind(s.Kind)
	if !ok {
		return physics.Shape{}, fmt.Errorf("%w: unknown shape %q", ErrInvalidScene, s.Kind)
	}
	he, err := vec(s.HalfExtents, "half_extents")
	if err != nil {
		return physics.Shape{}, err
	}
	off, err := vec(s.Offset, "offset")
	if err != nil {
		return physics.Shape{}, err
	}
	out := physics.Shape{Kind: kind, Radius: s.Radius, HalfExtents: he, Offset: off, Orientation: mgl64.QuatIdent()}
	if len(s.Normal) > 0 {
		n, err := vec(s.Normal, "normal")
		if err != nil {
			return physics.Shape{}, err
		}
		if n.Len() == 0 {
			return physics.Shape{}, fmt.Errorf("%w: plane normal is zero", ErrInvalidScene)
		}
		out.Orientation = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, n.Normalize())
	}
	return out, nil
}

// Builder returns a scene builder that creates the definition's bodies,
// visuals and constraints. Definitions are validated on load, so conversion
// errors here are not expected.
func (d *SceneDef) Builder() scene.Builder {
	return func(ctx *scene.Context) error {
		w := ctx.World()
		if len(d.Gravity) > 0 {
			g, _ := vec(d.Gravity, "gravity")
			w.SetGravity(g)
		}
		if s := d.Solver; s != nil {
			if s.Iterations > 0 {
				w.Solver().SetIterations(s.Iterations)
			}
			if s.Tolerance > 0 && !math.IsNaN(s.Tolerance) {
				w.Solver().SetTolerance(s.Tolerance)
			}
		}
		if q := d.QuatNormalize; q != nil {
			w.SetQuatNormalize(q.Skip, q.Fast)
		}
		for _, cm := range d.ContactMaterials {
			w.AddContactMaterial(cm.A, cm.B, cm.Friction, cm.Restitution)
		}

		named := make(map[string]physics.Body)
		for i, bd := range d.Bodies {
			bodies, err := bd.create(w)
			if err != nil {
				return fmt.Errorf("body %d: %w", i, err)
			}
			if bd.Name != "" {
				named[bd.Name] = bodies[0]
			}
			if bd.Visual != nil && !*bd.Visual {
				continue
			}
			if bd.Instanced {
				err = ctx.AddVisualsInstanced(bodies)
			} else {
				err = ctx.AddVisuals(bodies)
			}
			if err != nil {
				return fmt.Errorf("body %d visual: %w", i, err)
			}
		}

		for i, cd := range d.Constraints {
			if err := cd.add(w, named); err != nil {
				return fmt.Errorf("constraint %d: %w", i, err)
			}
		}
		return nil
	}
}

func (bd BodyDef) create(w physics.World) ([]physics.Body, error) {
	typ, _ := physics.ParseBodyType(bd.Type)
	desc := physics.BodyDesc{
		Type:           typ,
		Mass:           bd.Mass,
		Quaternion:     mgl64.QuatIdent(),
		Material:       bd.Material,
		LinearDamping:  bd.LinearDamping,
		AngularDamping: bd.AngularDamping,
		Trigger:        bd.Trigger,
	}
	desc.Position, _ = vec(bd.Position, "position")
	desc.Velocity, _ = vec(bd.Velocity, "velocity")
	desc.AngularVelocity, _ = vec(bd.AngularVelocity, "angular_velocity")
	if bd.Rotation != nil {
		desc.Quaternion, _ = bd.Rotation.quat()
	}
	for _, sd := range bd.Shapes {
		s, err := sd.shape()
		if err != nil {
			return nil, err
		}
		desc.Shapes = append(desc.Shapes, s)
	}

	if bd.Grid == nil {
		b, err := w.AddBody(desc)
		if err != nil {
			return nil, err
		}
		return []physics.Body{b}, nil
	}

	origin := desc.Position
	c := bd.Grid.Count
	out := make([]physics.Body, 0, c[0]*c[1]*c[2])
	for x := 0; x < c[0]; x++ {
		for y := 0; y < c[1]; y++ {
			for z := 0; z < c[2]; z++ {
				desc.Position = origin.Add(mgl64.Vec3{float64(x), float64(y), float64(z)}.Mul(bd.Grid.Spacing))
				b, err := w.AddBody(desc)
				if err != nil {
					return nil, err
				}
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (cd ConstraintDef) add(w physics.World, named map[string]physics.Body) error {
	a := named[cd.A]
	var b physics.Body
	if cd.B != "" {
		b = named[cd.B]
	}
	switch cd.Kind {
	case "distance":
		anchor, err := vec(cd.Anchor, "anchor")
		if err != nil {
			return err
		}
		_, err = w.AddDistanceConstraint(physics.DistanceDesc{BodyA: a, BodyB: b, Anchor: anchor, Distance: cd.Distance})
		return err
	case "point_to_point":
		pa, err := vec(cd.PivotA, "pivot_a")
		if err != nil {
			return err
		}
		pb, err := vec(cd.PivotB, "pivot_b")
		if err != nil {
			return err
		}
		_, err = w.AddPointToPointConstraint(physics.PointToPointDesc{BodyA: a, PivotA: pa, BodyB: b, PivotB: pb})
		return err
	}
	return fmt.Errorf("%w: unknown constraint kind %q", ErrInvalidScene, cd.Kind)
}
