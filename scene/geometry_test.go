package scene

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestNewGeometry(t *testing.T) {
	t.Run("rejects empty point set", func(t *testing.T) {
		_, err := NewGeometry(nil, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("rejects out of range triangle index", func(t *testing.T) {
		_, err := NewGeometry([]r3.Vector{{X: 1}}, [][3]int{{0, 0, 5}})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")
	})
}

func TestBoundingSphere(t *testing.T) {
	g, err := NewGeometry([]r3.Vector{
		{X: -1, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}, nil)
	test.That(t, err, test.ShouldBeNil)
	center, radius := g.BoundingSphere()
	test.That(t, center.X, test.ShouldAlmostEqual, 0)
	test.That(t, center.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, radius, test.ShouldAlmostEqual, math.Sqrt(1+0.25))
}

func TestGeometryTransform(t *testing.T) {
	g, err := NewGeometry([]r3.Vector{{X: 1, Y: 2, Z: 3}}, nil)
	test.That(t, err, test.ShouldBeNil)

	translate := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		translate.Set(i, i, 1)
	}
	translate.Set(0, 3, 10)

	moved := g.Transform(translate)
	test.That(t, moved.Points[0], test.ShouldResemble, r3.Vector{X: 11, Y: 2, Z: 3})
	// Original untouched.
	test.That(t, g.Points[0], test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
}

func TestSphereActor(t *testing.T) {
	t.Run("all points on the sphere", func(t *testing.T) {
		center := r3.Vector{X: 5, Y: -3, Z: 10}
		actor, err := NewSphereActor(center, 2, 8, Color{1, 0, 0})
		test.That(t, err, test.ShouldBeNil)
		for _, p := range actor.Geometry().Points {
			test.That(t, p.Sub(center).Norm(), test.ShouldAlmostEqual, 2, 1e-9)
		}
		test.That(t, len(actor.Geometry().Triangles), test.ShouldBeGreaterThan, 0)
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		_, err := NewSphereActor(r3.Vector{}, 0, 8, Color{1, 0, 0})
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewSphereActor(r3.Vector{}, 1, 2, Color{1, 0, 0})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestGridActor(t *testing.T) {
	actor, err := NewGridActor(3, 4, 2.5, Color{0, 1, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(actor.Geometry().Points), test.ShouldEqual, 12)
	test.That(t, actor.Geometry().Points[11], test.ShouldResemble, r3.Vector{X: 7.5, Y: 5, Z: 0})

	_, err = NewGridActor(1, 4, 2.5, Color{0, 1, 0})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGridActor(3, 4, 0, Color{0, 1, 0})
	test.That(t, err, test.ShouldNotBeNil)
}
