package compositor

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.medviz.dev/overlay/render/soft"
)

func TestZBufferWindow(t *testing.T) {
	logger := golog.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Offscreen = true
	z, err := NewZBufferWindow(soft.NewEngine(logger), 640, 480, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, z.Close(), test.ShouldBeNil)
	}()

	test.That(t, z.NumLayers(), test.ShouldEqual, 1)
	test.That(t, z.SceneLayer().Kind(), test.ShouldEqual, LayerScene)

	// The frame only sizes the projection; it is never drawn.
	test.That(t, z.SetVideoImage(grayFrame(t, 640, 480)), test.ShouldBeNil)
	test.That(t, z.SetCameraMatrix(testIntrinsics().Matrix()), test.ShouldBeNil)
	addSphere(t, z.OverlayWindow, 0, r3.Vector{Z: 500}, 50)

	t.Run("color shows geometry over black, no video", func(t *testing.T) {
		img, err := z.CaptureColor()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.NRGBAAt(320, 240).R, test.ShouldBeGreaterThan, 200)
		corner := img.NRGBAAt(5, 5)
		test.That(t, corner.R, test.ShouldEqual, 0)
		test.That(t, corner.G, test.ShouldEqual, 0)
	})

	t.Run("capture is the normalized z-buffer", func(t *testing.T) {
		depth, err := z.Capture()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, depth.GrayAt(320, 240).Y, test.ShouldEqual, 255)
		test.That(t, depth.GrayAt(5, 5).Y, test.ShouldEqual, 0)
	})
}
