package compositor

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"go.medviz.dev/overlay/vimage"
)

// CaptureColor forces a render and reads the composited color buffer back in
// canonical top-to-bottom row order. The engine buffer is bottom-to-top, so
// exactly one vertical flip happens here and nowhere else.
func (w *OverlayWindow) CaptureColor() (*image.NRGBA, error) {
	if w.state == stateClosed {
		return nil, ErrClosed
	}
	if err := w.Render(); err != nil {
		return nil, err
	}
	buf, err := w.surface.ReadColor()
	if err != nil {
		return nil, err
	}
	width, height := w.surface.Size()
	bottomUp := &image.NRGBA{
		Pix:    buf,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return imaging.FlipV(bottomUp), nil
}

// CaptureDepth forces a render and reads the depth buffer back as an 8-bit
// grayscale image, min-max normalized over the buffer with nearer surfaces
// brighter, flipped to top-to-bottom row order.
func (w *OverlayWindow) CaptureDepth() (*image.Gray, error) {
	if w.state == stateClosed {
		return nil, ErrClosed
	}
	if err := w.Render(); err != nil {
		return nil, err
	}
	depth, err := w.surface.ReadDepth()
	if err != nil {
		return nil, err
	}
	width, height := w.surface.Size()

	minD, maxD := depth[0], depth[0]
	for _, d := range depth {
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	scale := float32(0)
	if maxD > minD {
		scale = 255 / (maxD - minD)
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * width
		dst := y * out.Stride
		for x := 0; x < width; x++ {
			v := uint8((depth[src+x] - minD) * scale)
			out.Pix[dst+x] = 255 - v
		}
	}
	return out, nil
}

// SaveSceneToFile captures the composited color buffer and writes it to an
// image file, format chosen by extension.
func (w *OverlayWindow) SaveSceneToFile(path string) error {
	img, err := w.CaptureColor()
	if err != nil {
		return err
	}
	return errors.Wrap(vimage.WriteImageToFile(path, img), "error saving scene")
}
