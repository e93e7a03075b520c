package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Geometry is a point set with optional triangle connectivity. Point-cloud
// and glyph models leave Triangles empty; surface models index into Points.
type Geometry struct {
	Points    []r3.Vector
	Triangles [][3]int
}

// NewGeometry validates triangle indices against the point set.
func NewGeometry(points []r3.Vector, triangles [][3]int) (*Geometry, error) {
	if len(points) == 0 {
		return nil, errors.New("geometry should have at least one point")
	}
	for _, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(points) {
				return nil, errors.Errorf("triangle index %d out of range [0,%d)", idx, len(points))
			}
		}
	}
	return &Geometry{Points: points, Triangles: triangles}, nil
}

// BoundingSphere returns the center and radius of a sphere containing all
// points, computed from the axis-aligned bounds.
func (g *Geometry) BoundingSphere() (r3.Vector, float64) {
	minPt := g.Points[0]
	maxPt := g.Points[0]
	for _, p := range g.Points[1:] {
		minPt.X = math.Min(minPt.X, p.X)
		minPt.Y = math.Min(minPt.Y, p.Y)
		minPt.Z = math.Min(minPt.Z, p.Z)
		maxPt.X = math.Max(maxPt.X, p.X)
		maxPt.Y = math.Max(maxPt.Y, p.Y)
		maxPt.Z = math.Max(maxPt.Z, p.Z)
	}
	center := minPt.Add(maxPt).Mul(0.5)
	radius := 0.0
	for _, p := range g.Points {
		radius = math.Max(radius, p.Sub(center).Norm())
	}
	return center, radius
}

// Transform returns a new geometry with every point passed through a 4x4
// transform. Connectivity is shared with the original.
func (g *Geometry) Transform(transform mat.Matrix) *Geometry {
	points := make([]r3.Vector, len(g.Points))
	for i, p := range g.Points {
		points[i] = r3.Vector{
			X: transform.At(0, 0)*p.X + transform.At(0, 1)*p.Y + transform.At(0, 2)*p.Z + transform.At(0, 3),
			Y: transform.At(1, 0)*p.X + transform.At(1, 1)*p.Y + transform.At(1, 2)*p.Z + transform.At(1, 3),
			Z: transform.At(2, 0)*p.X + transform.At(2, 1)*p.Y + transform.At(2, 2)*p.Z + transform.At(2, 3),
		}
	}
	return &Geometry{Points: points, Triangles: g.Triangles}
}
