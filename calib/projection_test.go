package calib

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestBuildProjection(t *testing.T) {
	in := &Intrinsics{Fx: 1000, Fy: 1000, Cx: 960, Cy: 540}
	clip := ClippingRange{Near: 1, Far: 1000}

	t.Run("matches closed-form entries", func(t *testing.T) {
		proj, err := BuildProjection(1920, 1080, in, clip, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, proj.At(0, 0), test.ShouldAlmostEqual, 2.0*1000/1920, 1e-12)
		test.That(t, proj.At(1, 1), test.ShouldAlmostEqual, 2.0*1000/1080, 1e-12)
		test.That(t, proj.At(0, 2), test.ShouldAlmostEqual, (1920.0-2*960)/1920, 1e-12)
		test.That(t, proj.At(1, 2), test.ShouldAlmostEqual, -(1080.0-2*540)/1080, 1e-12)
		test.That(t, proj.At(2, 2), test.ShouldAlmostEqual, -(1000.0+1)/(1000.0-1), 1e-12)
		test.That(t, proj.At(2, 3), test.ShouldAlmostEqual, -2*1000.0*1/(1000.0-1), 1e-12)
		test.That(t, proj.At(3, 2), test.ShouldEqual, -1)
		test.That(t, proj.At(3, 3), test.ShouldEqual, 0)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := BuildProjection(1920, 1080, in, clip, 1)
		test.That(t, err, test.ShouldBeNil)
		b, err := BuildProjection(1920, 1080, in, clip, 1)
		test.That(t, err, test.ShouldBeNil)
		matricesAlmostEqual(t, a, b, 0)
	})

	t.Run("off-center principal point yields asymmetric frustum", func(t *testing.T) {
		offCenter := &Intrinsics{Fx: 2012.186314, Fy: 2017.966019, Cx: 944.7173708, Cy: 617.1093984}
		proj, err := BuildProjection(1920, 1080, offCenter, ClippingRange{Near: 0.1, Far: 1000}, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, proj.At(0, 2), test.ShouldNotEqual, 0)
		test.That(t, proj.At(1, 2), test.ShouldNotEqual, 0)
	})

	t.Run("rejects degenerate inputs", func(t *testing.T) {
		_, err := BuildProjection(0, 1080, in, clip, 1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = BuildProjection(1920, 1080, &Intrinsics{Fx: -1, Fy: 1, Cx: 1, Cy: 1}, clip, 1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = BuildProjection(1920, 1080, in, ClippingRange{Near: 10, Far: 1}, 1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = BuildProjection(1920, 1080, in, clip, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestComputeScissor(t *testing.T) {
	t.Run("same aspect fills the window", func(t *testing.T) {
		rect, err := ComputeScissor(1920, 1080, 1920, 1080, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rect, test.ShouldResemble, image.Rect(0, 0, 1920, 1080))
	})

	t.Run("wide window pads left and right", func(t *testing.T) {
		rect, err := ComputeScissor(2000, 1080, 1920, 1080, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rect.Dy(), test.ShouldEqual, 1080)
		test.That(t, rect.Dx(), test.ShouldEqual, 1920)
		test.That(t, rect.Min.X, test.ShouldEqual, 40)
	})

	t.Run("tall window pads top and bottom", func(t *testing.T) {
		rect, err := ComputeScissor(1920, 1200, 1920, 1080, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rect.Dx(), test.ShouldEqual, 1920)
		test.That(t, rect.Dy(), test.ShouldEqual, 1080)
		test.That(t, rect.Min.Y, test.ShouldEqual, 60)
	})

	t.Run("containment and aspect preservation", func(t *testing.T) {
		cases := []struct {
			name                         string
			winW, winH, imgW, imgH       int
			aspect                       float64
		}{
			{"landscape into portrait", 480, 800, 640, 480, 1},
			{"portrait into landscape", 800, 480, 480, 640, 1},
			{"anamorphic", 1024, 768, 720, 576, 1.33},
			{"tiny window", 3, 2, 1920, 1080, 1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rect, err := ComputeScissor(tc.winW, tc.winH, tc.imgW, tc.imgH, tc.aspect)
				test.That(t, err, test.ShouldBeNil)
				window := image.Rect(0, 0, tc.winW, tc.winH)
				test.That(t, rect.In(window), test.ShouldBeTrue)
				if rect.Dx() > 1 && rect.Dy() > 1 {
					gotAspect := float64(rect.Dx()) / float64(rect.Dy())
					wantAspect := float64(tc.imgW) / float64(tc.imgH) / tc.aspect
					// Integer truncation can cost up to a pixel per dimension.
					test.That(t, gotAspect, test.ShouldAlmostEqual, wantAspect, wantAspect/float64(min(rect.Dx(), rect.Dy()))*2)
				}
			})
		}
	})

	t.Run("rejects zero sizes", func(t *testing.T) {
		_, err := ComputeScissor(0, 1080, 1920, 1080, 1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = ComputeScissor(1920, 1080, 1920, 0, 1)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestComputeViewport(t *testing.T) {
	t.Run("full window is the unit square", func(t *testing.T) {
		vp, err := ComputeViewport(1920, 1080, image.Rect(0, 0, 1920, 1080))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vp, test.ShouldResemble, Viewport{XMin: 0, YMin: 0, XMax: 1, YMax: 1})
	})

	t.Run("centered scissor normalizes symmetrically", func(t *testing.T) {
		vp, err := ComputeViewport(200, 100, image.Rect(50, 25, 150, 75))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vp.XMin, test.ShouldAlmostEqual, 0.25)
		test.That(t, vp.XMax, test.ShouldAlmostEqual, 0.75)
		test.That(t, vp.YMin, test.ShouldAlmostEqual, 0.25)
		test.That(t, vp.YMax, test.ShouldAlmostEqual, 0.75)
	})

	t.Run("rejects zero window", func(t *testing.T) {
		_, err := ComputeViewport(0, 0, image.Rect(0, 0, 1, 1))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestFitImageToViewport(t *testing.T) {
	t.Run("taller-than-wide viewport limits on width", func(t *testing.T) {
		fit, err := FitImageToViewport(640, 480, 320, 480)
		test.That(t, err, test.ShouldBeNil)
		// Width is the limiting dimension: scale = 0.5 * 640 * 480/320.
		test.That(t, fit.ParallelScale, test.ShouldAlmostEqual, 0.5*640*480.0/320)
		test.That(t, fit.Center.X, test.ShouldAlmostEqual, 0.5*639)
		test.That(t, fit.Center.Y, test.ShouldAlmostEqual, 0.5*479)
	})

	t.Run("matching shape limits on height", func(t *testing.T) {
		fit, err := FitImageToViewport(640, 480, 640, 480)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fit.ParallelScale, test.ShouldAlmostEqual, 240)
	})

	t.Run("rejects zero viewport", func(t *testing.T) {
		_, err := FitImageToViewport(640, 480, 0, 480)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = FitImageToViewport(640, 480, 640, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
