package compositor

import (
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"go.medviz.dev/overlay/calib"
	"go.medviz.dev/overlay/render"
	"go.medviz.dev/overlay/vimage"
)

// StereoWindow drives a left and a right overlay window from a stereo rig:
// one video frame and one intrinsic matrix per eye, poses linked by the
// rig's rigid left-to-right offset, output row-interleaved for interlaced
// stereo displays.
type StereoWindow struct {
	logger golog.Logger
	left   *OverlayWindow
	right  *OverlayWindow
}

// NewStereoWindow builds the eye windows with a shared configuration.
func NewStereoWindow(
	engine render.Engine,
	width, height int,
	opts Options,
	logger golog.Logger,
) (*StereoWindow, error) {
	left, err := NewOverlayWindow(engine, width, height, opts, logger)
	if err != nil {
		return nil, err
	}
	right, err := NewOverlayWindow(engine, width, height, opts, logger)
	if err != nil {
		return nil, multierr.Combine(err, left.Close())
	}
	return &StereoWindow{logger: logger, left: left, right: right}, nil
}

// Left returns the left-eye window.
func (s *StereoWindow) Left() *OverlayWindow { return s.left }

// Right returns the right-eye window.
func (s *StereoWindow) Right() *OverlayWindow { return s.right }

// SetVideoImages imports one frame per eye. The frames must be the same
// shape with an even number of rows, so the composite can interlace.
func (s *StereoWindow) SetVideoImages(left, right *vimage.Frame) error {
	if left == nil || right == nil {
		return errors.New("left and right frames are required")
	}
	if left.Width() != right.Width() || left.Height() != right.Height() {
		return errors.Errorf(
			"left (%dx%d) and right (%dx%d) frames differ in shape",
			left.Width(), left.Height(), right.Width(), right.Height())
	}
	if left.Height()%2 != 0 {
		return errors.Errorf("stereo frames should have an even number of rows, got %d", left.Height())
	}
	if err := s.left.SetVideoImage(left); err != nil {
		return err
	}
	return s.right.SetVideoImage(right)
}

// SetCameraMatrices installs per-eye intrinsic matrices.
func (s *StereoWindow) SetCameraMatrices(left, right mat.Matrix) error {
	if err := s.left.SetCameraMatrix(left); err != nil {
		return errors.Wrap(err, "invalid left intrinsics")
	}
	return errors.Wrap(s.right.SetCameraMatrix(right), "invalid right intrinsics")
}

// SetCameraPoses drives both eyes from the left camera-to-world pose and the
// rig's rigid left-to-right offset.
func (s *StereoWindow) SetCameraPoses(leftToWorld, leftToRight mat.Matrix) error {
	rightToWorld, err := calib.ComposeStereoPose(leftToWorld, leftToRight)
	if err != nil {
		return err
	}
	if err := s.left.SetCameraPose(leftToWorld); err != nil {
		return err
	}
	return s.right.SetCameraPose(rightToWorld)
}

// Render renders both eyes.
func (s *StereoWindow) Render() error {
	if err := s.left.Render(); err != nil {
		return err
	}
	return s.right.Render()
}

// Interlaced renders and row-interleaves the two composited eye images: even
// rows from the left eye, odd rows from the right.
func (s *StereoWindow) Interlaced() (*image.NRGBA, error) {
	leftImg, err := s.left.CaptureColor()
	if err != nil {
		return nil, err
	}
	rightImg, err := s.right.CaptureColor()
	if err != nil {
		return nil, err
	}
	return vimage.Interlace(leftImg, rightImg)
}

// Close closes both eye windows.
func (s *StereoWindow) Close() error {
	return multierr.Combine(s.left.Close(), s.right.Close())
}
