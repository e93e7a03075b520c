package calib

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// orthonormality tolerance for rotation validation. Calibration pipelines
// hand us rotations that have been through a few float round trips.
const rotationTol = 1e-6

// Identity returns a new 4x4 identity pose.
func Identity() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// checkRigid validates that pose is 4x4, has an orthonormal rotation block
// with determinant +1, and bottom row [0 0 0 1].
func checkRigid(pose mat.Matrix) error {
	if pose == nil {
		return errors.New("pose is nil")
	}
	r, c := pose.Dims()
	if r != 4 || c != 4 {
		return errors.Errorf("pose should be 4x4, got %dx%d", r, c)
	}
	if pose.At(3, 0) != 0 || pose.At(3, 1) != 0 || pose.At(3, 2) != 0 || pose.At(3, 3) != 1 {
		return errors.New("pose bottom row should be [0 0 0 1]")
	}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, pose.At(i, j))
		}
	}
	return checkRotation(rot)
}

func checkRotation(rot mat.Matrix) error {
	r, c := rot.Dims()
	if r != 3 || c != 3 {
		return errors.Errorf("rotation should be 3x3, got %dx%d", r, c)
	}
	// R * Rᵀ must be identity.
	var prod mat.Dense
	prod.Mul(rot, rot.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod.At(i, j)-want) > rotationTol {
				return errors.New("rotation block is not orthonormal")
			}
		}
	}
	if det := mat.Det(rot); math.Abs(det-1) > rotationTol {
		return errors.Errorf("rotation block determinant should be 1, got %v", det)
	}
	return nil
}

// PoseFromComponents builds a 4x4 rigid transform from a 3x3 rotation and a
// translation. The rotation is validated for orthonormality and a
// determinant of +1; reflections and scaled matrices are rejected.
func PoseFromComponents(rotation mat.Matrix, translation r3.Vector) (*mat.Dense, error) {
	if rotation == nil {
		return nil, errors.New("rotation is nil")
	}
	if err := checkRotation(rotation); err != nil {
		return nil, err
	}
	pose := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			pose.Set(i, j, rotation.At(i, j))
		}
	}
	pose.Set(0, 3, translation.X)
	pose.Set(1, 3, translation.Y)
	pose.Set(2, 3, translation.Z)
	return pose, nil
}

// PoseComponents splits a validated 4x4 rigid transform back into its
// rotation block and translation vector.
func PoseComponents(pose mat.Matrix) (*mat.Dense, r3.Vector, error) {
	if err := checkRigid(pose); err != nil {
		return nil, r3.Vector{}, err
	}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, pose.At(i, j))
		}
	}
	trans := r3.Vector{X: pose.At(0, 3), Y: pose.At(1, 3), Z: pose.At(2, 3)}
	return rot, trans, nil
}

// InvertPose returns the inverse of a 4x4 rigid transform.
func InvertPose(pose mat.Matrix) (*mat.Dense, error) {
	if err := checkRigid(pose); err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(pose); err != nil {
		return nil, errors.Wrap(err, "pose is singular")
	}
	// Inversion introduces float dust in the bottom row; a rigid inverse is
	// still rigid, so pin it exactly.
	inv.Set(3, 0, 0)
	inv.Set(3, 1, 0)
	inv.Set(3, 2, 0)
	inv.Set(3, 3, 1)
	return &inv, nil
}

// ComposeStereoPose derives the right camera's camera-to-world pose, given
// the left camera's camera-to-world pose and the rigid left-to-right
// offset from a stereo calibration.
func ComposeStereoPose(leftToWorld, leftToRight mat.Matrix) (*mat.Dense, error) {
	worldToLeft, err := InvertPose(leftToWorld)
	if err != nil {
		return nil, errors.Wrap(err, "invalid left camera pose")
	}
	if err := checkRigid(leftToRight); err != nil {
		return nil, errors.Wrap(err, "invalid left-to-right offset")
	}
	var worldToRight mat.Dense
	worldToRight.Mul(leftToRight, worldToLeft)
	return InvertPose(&worldToRight)
}

// TransformPoint applies a 4x4 rigid transform to a 3D point.
func TransformPoint(pose mat.Matrix, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: pose.At(0, 0)*p.X + pose.At(0, 1)*p.Y + pose.At(0, 2)*p.Z + pose.At(0, 3),
		Y: pose.At(1, 0)*p.X + pose.At(1, 1)*p.Y + pose.At(1, 2)*p.Z + pose.At(1, 3),
		Z: pose.At(2, 0)*p.X + pose.At(2, 1)*p.Y + pose.At(2, 2)*p.Z + pose.At(2, 3),
	}
}

// CameraPlacement is an eye/look-at/up triple derived from a rigid pose,
// ready to apply to a rendering camera.
type CameraPlacement struct {
	Position   r3.Vector
	FocalPoint r3.Vector
	ViewUp     r3.Vector
}

// PlaceCamera converts a camera-to-world pose into a camera placement by
// transforming three reference points through the pose: the origin, a point
// along the local view axis, and a point along the local up axis.
//
// With visionConvention true the camera looks down its local +Z with -Y up,
// so that image rows increase downward, matching how intrinsic-based
// projections expect pixels to be laid out. Otherwise the graphics
// convention (-Z forward, +Y up) is used.
func PlaceCamera(pose mat.Matrix, visionConvention bool) (CameraPlacement, error) {
	if err := checkRigid(pose); err != nil {
		return CameraPlacement{}, err
	}
	forward := r3.Vector{X: 0, Y: 0, Z: 1}
	up := r3.Vector{X: 0, Y: -1, Z: 0}
	if !visionConvention {
		forward = r3.Vector{X: 0, Y: 0, Z: -1}
		up = r3.Vector{X: 0, Y: 1, Z: 0}
	}
	position := TransformPoint(pose, r3.Vector{})
	focal := TransformPoint(pose, forward)
	viewUp := TransformPoint(pose, up).Sub(position)
	return CameraPlacement{Position: position, FocalPoint: focal, ViewUp: viewUp}, nil
}
