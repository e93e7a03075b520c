package render

import (
	"image"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.medviz.dev/overlay/calib"
)

// Camera is the engine-level virtual camera owned by one rendering layer.
// Its state is a plain enumerated struct so that saving, restoring and
// copying between layers is a direct field-by-field operation.
type Camera struct {
	Position   r3.Vector
	FocalPoint r3.Vector
	ViewUp     r3.Vector

	// ViewAngle is the vertical field of view in degrees, used only when no
	// explicit projection matrix is set.
	ViewAngle float64

	ParallelProjection bool
	ParallelScale      float64

	ClippingRange calib.ClippingRange

	// When UseExplicitProjection is set, Projection overrides the camera's
	// own perspective computation entirely. This is how a calibrated
	// intrinsic matrix drives the render.
	UseExplicitProjection bool
	Projection            *mat.Dense

	UseScissor bool
	Scissor    image.Rectangle
}

// NewCamera returns a camera with conventional defaults: at the origin
// looking down +z (vision convention) with a 30 degree field of view.
func NewCamera() *Camera {
	return &Camera{
		FocalPoint:    r3.Vector{X: 0, Y: 0, Z: 1},
		ViewUp:        r3.Vector{X: 0, Y: -1, Z: 0},
		ViewAngle:     30,
		ClippingRange: calib.ClippingRange{Near: 0.1, Far: 1000},
	}
}

// CameraState is a snapshot of every camera field, used to save and restore
// views and to keep multiple layer cameras in lockstep.
type CameraState struct {
	Position              r3.Vector
	FocalPoint            r3.Vector
	ViewUp                r3.Vector
	ViewAngle             float64
	ParallelProjection    bool
	ParallelScale         float64
	ClippingRange         calib.ClippingRange
	UseExplicitProjection bool
	Projection            *mat.Dense
}

// State captures the camera's current state. The projection matrix is
// deep-copied so a restored state cannot alias later mutations.
func (c *Camera) State() CameraState {
	s := CameraState{
		Position:              c.Position,
		FocalPoint:            c.FocalPoint,
		ViewUp:                c.ViewUp,
		ViewAngle:             c.ViewAngle,
		ParallelProjection:    c.ParallelProjection,
		ParallelScale:         c.ParallelScale,
		ClippingRange:         c.ClippingRange,
		UseExplicitProjection: c.UseExplicitProjection,
	}
	if c.Projection != nil {
		s.Projection = mat.DenseCopyOf(c.Projection)
	}
	return s
}

// SetState restores a previously captured camera state.
func (c *Camera) SetState(s CameraState) {
	c.Position = s.Position
	c.FocalPoint = s.FocalPoint
	c.ViewUp = s.ViewUp
	c.ViewAngle = s.ViewAngle
	c.ParallelProjection = s.ParallelProjection
	c.ParallelScale = s.ParallelScale
	c.ClippingRange = s.ClippingRange
	c.UseExplicitProjection = s.UseExplicitProjection
	if s.Projection != nil {
		c.Projection = mat.DenseCopyOf(s.Projection)
	} else {
		c.Projection = nil
	}
}

// ApplyPlacement positions the camera from a calibration-derived placement.
func (c *Camera) ApplyPlacement(p calib.CameraPlacement) {
	c.Position = p.Position
	c.FocalPoint = p.FocalPoint
	c.ViewUp = p.ViewUp
}

// ViewMatrix returns the 4x4 world-to-camera transform implied by the
// camera's position, focal point and view-up vector (a right-handed look-at,
// camera space looking down -z).
func (c *Camera) ViewMatrix() *mat.Dense {
	f := c.FocalPoint.Sub(c.Position).Normalize()
	s := f.Cross(c.ViewUp).Normalize()
	u := s.Cross(f)

	m := mat.NewDense(4, 4, []float64{
		s.X, s.Y, s.Z, -s.Dot(c.Position),
		u.X, u.Y, u.Z, -u.Dot(c.Position),
		-f.X, -f.Y, -f.Z, f.Dot(c.Position),
		0, 0, 0, 1,
	})
	return m
}
