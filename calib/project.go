package calib

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ProjectPoints projects 3D world points to 2D pixel locations through a
// world-to-camera transform and pinhole intrinsics. Points at or behind the
// camera plane (z <= 0) project to (-1,-1) so callers can filter them with a
// bounds check.
func ProjectPoints(points []r3.Vector, worldToCamera mat.Matrix, in *Intrinsics) ([]r2.Point, error) {
	if points == nil {
		return nil, errors.New("points is nil")
	}
	if err := checkRigid(worldToCamera); err != nil {
		return nil, errors.Wrap(err, "invalid world-to-camera transform")
	}
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	projected := make([]r2.Point, len(points))
	for i, p := range points {
		cp := TransformPoint(worldToCamera, p)
		if cp.Z <= 0 {
			projected[i] = r2.Point{X: -1, Y: -1}
			continue
		}
		projected[i] = r2.Point{
			X: (cp.X/cp.Z)*in.Fx + in.Cx,
			Y: (cp.Y/cp.Z)*in.Fy + in.Cy,
		}
	}
	return projected, nil
}

// ProjectFacingPoints projects only those 3D points whose normals face the
// camera, returning the projected pixels and the indices of the points kept.
func ProjectFacingPoints(
	points, normals []r3.Vector,
	worldToCamera mat.Matrix,
	in *Intrinsics,
) ([]r2.Point, []int, error) {
	if len(points) != len(normals) {
		return nil, nil, errors.Errorf("%d points but %d normals", len(points), len(normals))
	}
	if err := checkRigid(worldToCamera); err != nil {
		return nil, nil, errors.Wrap(err, "invalid world-to-camera transform")
	}
	if err := in.CheckValid(); err != nil {
		return nil, nil, err
	}
	cameraToWorld, err := InvertPose(worldToCamera)
	if err != nil {
		return nil, nil, err
	}
	eye := TransformPoint(cameraToWorld, r3.Vector{})

	facing := []r3.Vector{}
	var kept []int
	for i, p := range points {
		toCamera := eye.Sub(p)
		if toCamera.Dot(normals[i]) > 0 {
			facing = append(facing, p)
			kept = append(kept, i)
		}
	}
	projected, err := ProjectPoints(facing, worldToCamera, in)
	if err != nil {
		return nil, nil, err
	}
	return projected, kept, nil
}
