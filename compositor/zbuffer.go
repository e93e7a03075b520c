package compositor

import (
	"image"

	"github.com/edaniels/golog"

	"go.medviz.dev/overlay/render"
)

// ZBufferWindow renders a single calibrated scene layer and captures its
// normalized z-buffer instead of color. Video frames are accepted only to
// size the projection against the calibrated image; they are never drawn.
type ZBufferWindow struct {
	*OverlayWindow
}

// NewZBufferWindow builds a z-buffer window. The layer plan in opts is
// replaced with a single scene layer.
func NewZBufferWindow(
	engine render.Engine,
	width, height int,
	opts Options,
	logger golog.Logger,
) (*ZBufferWindow, error) {
	opts.Layers = []LayerSpec{{Kind: LayerScene}}
	inner, err := NewOverlayWindow(engine, width, height, opts, logger)
	if err != nil {
		return nil, err
	}
	return &ZBufferWindow{OverlayWindow: inner}, nil
}

// SceneLayer returns the window's only layer.
func (z *ZBufferWindow) SceneLayer() *Layer {
	return z.layers[0]
}

// Capture renders and returns the normalized, top-to-bottom z-buffer.
func (z *ZBufferWindow) Capture() (*image.Gray, error) {
	return z.CaptureDepth()
}
