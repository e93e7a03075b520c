// Package vimage holds the pixel-buffer types exchanged between video
// sources and the overlay compositor: BGR video frames, single-channel alpha
// masks, and the row-interleaving used for interlaced stereo displays.
package vimage

import (
	"image"

	"github.com/pkg/errors"
)

// Frame is a video frame held in an internally owned buffer, in the RGB(A)
// channel order rendering engines expect. Constructors copy and
// channel-swap the caller's buffer, so a caller may immediately reuse its
// own memory while the compositor keeps reading the frame.
type Frame struct {
	width    int
	height   int
	channels int
	pix      []uint8
}

func checkFrameShape(data []uint8, width, height, channels int) error {
	if data == nil {
		return errors.New("frame data is nil")
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("frame size should be positive, got %dx%d", width, height)
	}
	if len(data) != width*height*channels {
		return errors.Errorf(
			"frame data should be %d bytes (%dx%dx%d), got %d",
			width*height*channels, height, width, channels, len(data))
	}
	return nil
}

// NewFrameBGR copies a height x width x 3 BGR buffer (OpenCV channel order,
// row-major) into a new RGB frame.
func NewFrameBGR(data []uint8, width, height int) (*Frame, error) {
	if err := checkFrameShape(data, width, height, 3); err != nil {
		return nil, err
	}
	pix := make([]uint8, len(data))
	for i := 0; i < len(data); i += 3 {
		pix[i] = data[i+2]
		pix[i+1] = data[i+1]
		pix[i+2] = data[i]
	}
	return &Frame{width: width, height: height, channels: 3, pix: pix}, nil
}

// NewFrameRGB copies a height x width x 3 RGB buffer into a new frame
// without any channel swap.
func NewFrameRGB(data []uint8, width, height int) (*Frame, error) {
	if err := checkFrameShape(data, width, height, 3); err != nil {
		return nil, err
	}
	pix := make([]uint8, len(data))
	copy(pix, data)
	return &Frame{width: width, height: height, channels: 3, pix: pix}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Channels returns 3 for RGB frames and 4 for RGBA frames.
func (f *Frame) Channels() int { return f.channels }

// Bounds returns the frame's pixel rectangle.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.width, f.height) }

// Pix exposes the frame's backing buffer in row-major RGB(A) order. The
// buffer is owned by the frame; callers must not hold onto it across a
// subsequent frame update.
func (f *Frame) Pix() []uint8 { return f.pix }

// RGBA returns the pixel at (x, y). Alpha is 255 for 3-channel frames.
func (f *Frame) RGBA(x, y int) (r, g, b, a uint8) {
	i := (y*f.width + x) * f.channels
	if f.channels == 4 {
		return f.pix[i], f.pix[i+1], f.pix[i+2], f.pix[i+3]
	}
	return f.pix[i], f.pix[i+1], f.pix[i+2], 255
}

// WithAlphaMask expands the frame to RGBA, copying the mask into the alpha
// channel. Regions without mask coverage become fully opaque only via the
// mask contents themselves; the mask must match the frame dimensions.
func (f *Frame) WithAlphaMask(m *Mask) (*Frame, error) {
	if m == nil {
		return nil, errors.New("mask is nil")
	}
	if m.width != f.width || m.height != f.height {
		return nil, errors.Errorf(
			"mask dimensions (%dx%d) don't match frame (%dx%d)",
			m.width, m.height, f.width, f.height)
	}
	if f.channels != 3 {
		return nil, errors.Errorf("frame should be 3 channel, got %d", f.channels)
	}
	pix := make([]uint8, f.width*f.height*4)
	for p := 0; p < f.width*f.height; p++ {
		pix[p*4] = f.pix[p*3]
		pix[p*4+1] = f.pix[p*3+1]
		pix[p*4+2] = f.pix[p*3+2]
		pix[p*4+3] = m.pix[p]
	}
	return &Frame{width: f.width, height: f.height, channels: 4, pix: pix}, nil
}

// Opaque expands a 3-channel frame to RGBA with every pixel fully opaque.
func (f *Frame) Opaque() *Frame {
	if f.channels == 4 {
		return f
	}
	pix := make([]uint8, f.width*f.height*4)
	for p := 0; p < f.width*f.height; p++ {
		pix[p*4] = f.pix[p*3]
		pix[p*4+1] = f.pix[p*3+1]
		pix[p*4+2] = f.pix[p*3+2]
		pix[p*4+3] = 255
	}
	return &Frame{width: f.width, height: f.height, channels: 4, pix: pix}
}

// ToImage converts the frame to a standard library NRGBA image.
func (f *Frame) ToImage() *image.NRGBA {
	out := image.NewNRGBA(f.Bounds())
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r, g, b, a := f.RGBA(x, y)
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = a
		}
	}
	return out
}
