package vimage

import (
	"image"

	"github.com/pkg/errors"
)

// Interlace row-interleaves two equal-shape images into a new image of the
// same size: even rows come from left, odd rows from right. Both inputs
// must have an even number of rows, as interlaced stereo monitors address
// line pairs.
func Interlace(left, right *image.NRGBA) (*image.NRGBA, error) {
	if left == nil || right == nil {
		return nil, errors.New("left and right images are required")
	}
	if left.Bounds() != right.Bounds() {
		return nil, errors.Errorf(
			"left (%v) and right (%v) images differ in shape",
			left.Bounds(), right.Bounds())
	}
	height := left.Bounds().Dy()
	if height%2 != 0 {
		return nil, errors.Errorf("images should have an even number of rows, got %d", height)
	}
	out := image.NewNRGBA(left.Bounds())
	for y := 0; y < height; y++ {
		src := left
		if y%2 == 1 {
			src = right
		}
		copy(
			out.Pix[y*out.Stride:y*out.Stride+out.Stride],
			src.Pix[y*src.Stride:y*src.Stride+src.Stride],
		)
	}
	return out, nil
}
