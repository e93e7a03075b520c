package calib

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BuildProjection constructs a graphics-engine-compatible off-axis
// perspective projection matrix from pinhole intrinsics, for an image of the
// given size. The principal point offsets produce the asymmetric frustum
// needed to match the calibrated pixel geometry; skew is not modeled.
func BuildProjection(width, height int, in *Intrinsics, clip ClippingRange, aspectRatio float64) (*mat.Dense, error) {
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	if err := clip.CheckValid(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("image size should be positive, got %dx%d", width, height)
	}
	if aspectRatio <= 0 {
		return nil, errors.Errorf("aspect ratio should be positive, got %v", aspectRatio)
	}

	w := float64(width)
	h := float64(height)
	near := clip.Near
	far := clip.Far

	m := mat.NewDense(4, 4, nil)
	m.Set(0, 0, 2*in.Fx/w)
	m.Set(0, 2, (w-2*in.Cx)/w)
	m.Set(1, 1, 2*in.Fy/(h/aspectRatio))
	m.Set(1, 2, -(h-2*in.Cy)/h)
	m.Set(2, 2, -(far+near)/(far-near))
	m.Set(2, 3, -2*far*near/(far-near))
	m.Set(3, 2, -1)
	return m, nil
}

// ComputeScissor computes the largest centered sub-rectangle of a
// windowW x windowH display that preserves the aspect ratio of a calibrated
// imageW x imageH image. The limiting dimension is found by comparing the
// width scale factor against the (aspect-corrected) height scale factor;
// the other dimension is centered with symmetric padding.
func ComputeScissor(windowW, windowH, imageW, imageH int, aspectRatio float64) (image.Rectangle, error) {
	if windowW <= 0 || windowH <= 0 {
		return image.Rectangle{}, errors.Errorf("window size should be positive, got %dx%d", windowW, windowH)
	}
	if imageW <= 0 || imageH <= 0 {
		return image.Rectangle{}, errors.Errorf("image size should be positive, got %dx%d", imageW, imageH)
	}
	if aspectRatio <= 0 {
		return image.Rectangle{}, errors.Errorf("aspect ratio should be positive, got %v", aspectRatio)
	}

	widthScale := float64(windowW) / float64(imageW)
	heightScale := float64(windowH) / aspectRatio / float64(imageH)

	vpw := windowW
	vph := windowH
	if widthScale < heightScale {
		vph = int(float64(imageH) * widthScale * aspectRatio)
	} else {
		vpw = int(float64(imageW) * heightScale)
	}
	vpx := (windowW - vpw) / 2
	vpy := (windowH - vph) / 2
	return image.Rect(vpx, vpy, vpx+vpw, vpy+vph), nil
}

// Viewport is a normalized sub-rectangle of a render target, each coordinate
// in [0,1].
type Viewport struct {
	XMin, YMin, XMax, YMax float64
}

// ComputeViewport converts a pixel scissor rectangle into the normalized
// viewport of a windowW x windowH render target.
func ComputeViewport(windowW, windowH int, scissor image.Rectangle) (Viewport, error) {
	if windowW <= 0 || windowH <= 0 {
		return Viewport{}, errors.Errorf("window size should be positive, got %dx%d", windowW, windowH)
	}
	return Viewport{
		XMin: float64(scissor.Min.X) / float64(windowW),
		YMin: float64(scissor.Min.Y) / float64(windowH),
		XMax: float64(scissor.Max.X) / float64(windowW),
		YMax: float64(scissor.Max.Y) / float64(windowH),
	}, nil
}

// ImageFit is a parallel-projection camera placement that centers an image
// in a viewport and scales it to fill as much of the viewport as possible
// without distorting it.
type ImageFit struct {
	Center        r3.Vector
	ParallelScale float64
}

// FitImageToViewport works out where a parallel-projection camera must sit to
// frame a imageW x imageH image plane inside a windowW x windowH viewport.
// The scale is half the image's limiting display-space dimension, following
// the same min-ratio selection as ComputeScissor.
func FitImageToViewport(imageW, imageH, windowW, windowH int) (ImageFit, error) {
	if windowW <= 0 || windowH <= 0 {
		return ImageFit{}, errors.Errorf("viewport size should be positive, got %dx%d", windowW, windowH)
	}
	if imageW <= 0 || imageH <= 0 {
		return ImageFit{}, errors.Errorf("image size should be positive, got %dx%d", imageW, imageH)
	}

	iw := float64(imageW)
	ih := float64(imageH)
	// Image extent spans pixel centers 0..w-1, so its center sits at
	// (w-1)/2, (h-1)/2.
	center := r3.Vector{X: 0.5 * (iw - 1), Y: 0.5 * (ih - 1), Z: 0}

	widthRatio := iw / float64(windowW)
	heightRatio := ih / float64(windowH)
	var scale float64
	if widthRatio > heightRatio {
		scale = 0.5 * iw * float64(windowH) / float64(windowW)
	} else {
		scale = 0.5 * ih
	}
	return ImageFit{Center: center, ParallelScale: scale}, nil
}
