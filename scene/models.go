package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// NewSphereActor builds an actor whose geometry is a latitude/longitude
// tessellated sphere. Resolution is the number of subdivisions in each
// direction; 16 is plenty for overlay glyphs.
func NewSphereActor(center r3.Vector, radius float64, resolution int, color Color) (*Actor, error) {
	if radius <= 0 {
		return nil, errors.Errorf("sphere radius should be positive, got %v", radius)
	}
	if resolution < 3 {
		return nil, errors.Errorf("sphere resolution should be at least 3, got %d", resolution)
	}

	var points []r3.Vector
	var triangles [][3]int
	// Rings of latitude from pole to pole, each ring a full circle.
	for i := 0; i <= resolution; i++ {
		phi := math.Pi * float64(i) / float64(resolution)
		for j := 0; j < resolution; j++ {
			theta := 2 * math.Pi * float64(j) / float64(resolution)
			points = append(points, r3.Vector{
				X: center.X + radius*math.Sin(phi)*math.Cos(theta),
				Y: center.Y + radius*math.Sin(phi)*math.Sin(theta),
				Z: center.Z + radius*math.Cos(phi),
			})
		}
	}
	for i := 0; i < resolution; i++ {
		for j := 0; j < resolution; j++ {
			next := (j + 1) % resolution
			a := i*resolution + j
			b := i*resolution + next
			c := (i+1)*resolution + j
			d := (i+1)*resolution + next
			triangles = append(triangles, [3]int{a, b, c}, [3]int{b, d, c})
		}
	}

	geometry, err := NewGeometry(points, triangles)
	if err != nil {
		return nil, err
	}
	return NewActor(geometry, color)
}

// NewGridActor builds an actor whose geometry is a planar grid of points in
// the z=0 plane, spacing units apart, useful as a calibration target stand-in.
func NewGridActor(rows, cols int, spacing float64, color Color) (*Actor, error) {
	if rows < 2 || cols < 2 {
		return nil, errors.Errorf("grid should be at least 2x2, got %dx%d", rows, cols)
	}
	if spacing <= 0 {
		return nil, errors.Errorf("grid spacing should be positive, got %v", spacing)
	}
	points := make([]r3.Vector, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, r3.Vector{X: float64(c) * spacing, Y: float64(r) * spacing, Z: 0})
		}
	}
	geometry, err := NewGeometry(points, nil)
	if err != nil {
		return nil, err
	}
	return NewActor(geometry, color)
}

// NewPointCloudActor builds an actor over a bare point set.
func NewPointCloudActor(points []r3.Vector, color Color) (*Actor, error) {
	geometry, err := NewGeometry(points, nil)
	if err != nil {
		return nil, err
	}
	return NewActor(geometry, color)
}
