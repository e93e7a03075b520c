package vimage

import "github.com/pkg/errors"

// Mask is a single-channel 8-bit image used as the alpha channel of a
// masked video layer. 0 is fully transparent, 255 fully opaque.
type Mask struct {
	width  int
	height int
	pix    []uint8
}

// NewMask copies a height x width x 1 buffer into a new mask.
func NewMask(data []uint8, width, height int) (*Mask, error) {
	if data == nil {
		return nil, errors.New("mask data is nil")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("mask size should be positive, got %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf(
			"mask data should be %d bytes (%dx%dx1), got %d",
			width*height, height, width, len(data))
	}
	pix := make([]uint8, len(data))
	copy(pix, data)
	return &Mask{width: width, height: height, pix: pix}, nil
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) uint8 { return m.pix[y*m.width+x] }
