package calib

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestProjectPoints(t *testing.T) {
	in := &Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}

	t.Run("point on principal axis hits principal point", func(t *testing.T) {
		pts, err := ProjectPoints([]r3.Vector{{X: 0, Y: 0, Z: 500}}, Identity(), in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pts[0].X, test.ShouldAlmostEqual, 320)
		test.That(t, pts[0].Y, test.ShouldAlmostEqual, 240)
	})

	t.Run("similar triangles", func(t *testing.T) {
		pts, err := ProjectPoints([]r3.Vector{{X: 100, Y: 50, Z: 500}}, Identity(), in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pts[0].X, test.ShouldAlmostEqual, 320+100.0/500*500)
		test.That(t, pts[0].Y, test.ShouldAlmostEqual, 240+50.0/500*500)
	})

	t.Run("point behind camera is flagged", func(t *testing.T) {
		pts, err := ProjectPoints([]r3.Vector{{X: 0, Y: 0, Z: -10}}, Identity(), in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pts[0].X, test.ShouldEqual, -1.0)
		test.That(t, pts[0].Y, test.ShouldEqual, -1.0)
	})

	t.Run("nil points rejected", func(t *testing.T) {
		_, err := ProjectPoints(nil, Identity(), in)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestProjectFacingPoints(t *testing.T) {
	in := &Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
	points := []r3.Vector{
		{X: 0, Y: 0, Z: 500},
		{X: 10, Y: 0, Z: 500},
	}
	// First normal faces the camera at the origin, second faces away.
	normals := []r3.Vector{
		{X: 0, Y: 0, Z: -1},
		{X: 0, Y: 0, Z: 1},
	}

	t.Run("keeps only camera-facing points", func(t *testing.T) {
		pts, kept, err := ProjectFacingPoints(points, normals, Identity(), in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(pts), test.ShouldEqual, 1)
		test.That(t, kept, test.ShouldResemble, []int{0})
		test.That(t, pts[0].X, test.ShouldAlmostEqual, 320)
	})

	t.Run("mismatched lengths rejected", func(t *testing.T) {
		_, _, err := ProjectFacingPoints(points, normals[:1], Identity(), in)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
