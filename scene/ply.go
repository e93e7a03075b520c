package scene

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// defaultPalette is cycled through when loading a directory of models with
// no explicit colors.
var defaultPalette = []Color{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 1, 0},
	{0, 1, 1},
	{1, 0, 1},
}

// LoadSurfaceModel loads a PLY surface model from disk into an actor.
// Only .ply files are supported; other extensions are a validation error.
func LoadSurfaceModel(path string, color Color, opacity float64) (*Actor, error) {
	if strings.ToLower(filepath.Ext(path)) != ".ply" {
		return nil, errors.Errorf("unsupported model file extension %q", filepath.Ext(path))
	}
	if err := color.CheckValid(); err != nil {
		return nil, err
	}

	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening model file %q", path)
	}
	defer f.Close()

	ply := goply.New(f)
	vertices := ply.Elements("vertex")
	if len(vertices) == 0 {
		return nil, errors.Errorf("model file %q has no vertices", path)
	}

	points := make([]r3.Vector, len(vertices))
	for i, v := range vertices {
		points[i] = r3.Vector{
			X: plyFloat(v["x"]),
			Y: plyFloat(v["y"]),
			Z: plyFloat(v["z"]),
		}
	}

	var triangles [][3]int
	for _, face := range ply.Elements("face") {
		idxs := plyIntList(face["vertex_indices"])
		if idxs == nil {
			idxs = plyIntList(face["vertex_index"])
		}
		// Fan-triangulate polygons with more than three vertices.
		for k := 2; k < len(idxs); k++ {
			triangles = append(triangles, [3]int{idxs[0], idxs[k-1], idxs[k]})
		}
	}

	geometry, err := NewGeometry(points, triangles)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid geometry in %q", path)
	}
	actor, err := NewActor(geometry, color)
	if err != nil {
		return nil, err
	}
	if err := actor.SetOpacity(opacity); err != nil {
		return nil, err
	}
	if err := actor.SetName(filepath.Base(path)); err != nil {
		return nil, err
	}
	return actor, nil
}

// LoadSurfaceModelsFromDirectory loads every PLY file in a directory, in
// sorted filename order, cycling through a default color palette.
func LoadSurfaceModelsFromDirectory(dir string) ([]*Actor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model directory %q", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.ToLower(filepath.Ext(e.Name())) == ".ply" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no model files found in %q", dir)
	}
	sort.Strings(names)

	actors := make([]*Actor, 0, len(names))
	for i, name := range names {
		actor, err := LoadSurfaceModel(filepath.Join(dir, name), defaultPalette[i%len(defaultPalette)], 1.0)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, nil
}

// plyFloat coerces the interface values goply produces for scalar
// properties, whose Go type depends on the declared PLY property type.
func plyFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint8:
		return float64(n)
	case uint32:
		return float64(n)
	default:
		return 0
	}
}

func plyInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// plyIntList coerces list properties, which goply may hand back as a slice
// of interfaces or as a concretely typed slice.
func plyIntList(v interface{}) []int {
	switch l := v.(type) {
	case nil:
		return nil
	case []int:
		return l
	case []interface{}:
		out := make([]int, 0, len(l))
		for _, e := range l {
			if n, ok := plyInt(e); ok {
				out = append(out, n)
			}
		}
		return out
	case []int32:
		out := make([]int, len(l))
		for i, e := range l {
			out[i] = int(e)
		}
		return out
	case []uint32:
		out := make([]int, len(l))
		for i, e := range l {
			out[i] = int(e)
		}
		return out
	default:
		return nil
	}
}
