// Package calib provides the pure camera-calibration mathematics that keep a
// virtual rendering camera aligned with a real, OpenCV-calibrated camera:
// rigid pose construction and composition, pinhole-intrinsics-to-projection
// conversion, and the scissor/viewport arithmetic needed when the display
// window has a different aspect ratio than the calibrated image.
package calib

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is returned when an operation needs camera intrinsics
// and none have been provided.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// Intrinsics holds the pinhole parameters of a calibrated camera, in pixels.
// Skew is not modeled.
type Intrinsics struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// CheckValid checks if the fields of Intrinsics have valid inputs.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return ErrNoIntrinsics
	}
	if in.Fx <= 0 || math.IsNaN(in.Fx) || math.IsInf(in.Fx, 0) {
		return errors.Errorf("invalid focal length fx = %v", in.Fx)
	}
	if in.Fy <= 0 || math.IsNaN(in.Fy) || math.IsInf(in.Fy, 0) {
		return errors.Errorf("invalid focal length fy = %v", in.Fy)
	}
	if in.Cx < 0 || math.IsNaN(in.Cx) || math.IsInf(in.Cx, 0) {
		return errors.Errorf("invalid principal point cx = %v", in.Cx)
	}
	if in.Cy < 0 || math.IsNaN(in.Cy) || math.IsInf(in.Cy, 0) {
		return errors.Errorf("invalid principal point cy = %v", in.Cy)
	}
	return nil
}

// Matrix returns the 3x3 camera matrix
//
//	[[fx 0 cx],
//	 [0 fy cy],
//	 [0  0  1]]
func (in *Intrinsics) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	m.Set(0, 0, in.Fx)
	m.Set(0, 2, in.Cx)
	m.Set(1, 1, in.Fy)
	m.Set(1, 2, in.Cy)
	m.Set(2, 2, 1)
	return m
}

// IntrinsicsFromMatrix extracts and validates pinhole intrinsics from a 3x3
// OpenCV-style camera matrix. The skew entry must be zero and the bottom row
// must be [0 0 1].
func IntrinsicsFromMatrix(m mat.Matrix) (*Intrinsics, error) {
	if m == nil {
		return nil, ErrNoIntrinsics
	}
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Errorf("camera matrix should be 3x3, got %dx%d", r, c)
	}
	if m.At(0, 1) != 0 {
		return nil, errors.Errorf("camera matrix skew should be 0, got %v", m.At(0, 1))
	}
	if m.At(1, 0) != 0 || m.At(2, 0) != 0 || m.At(2, 1) != 0 || m.At(2, 2) != 1 {
		return nil, errors.New("camera matrix should have zero lower-left entries and 1 at (2,2)")
	}
	in := &Intrinsics{
		Fx: m.At(0, 0),
		Fy: m.At(1, 1),
		Cx: m.At(0, 2),
		Cy: m.At(1, 2),
	}
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	return in, nil
}

// IntrinsicsFromJSONFile reads pinhole intrinsics from a JSON file.
func IntrinsicsFromJSONFile(jsonPath string) (*Intrinsics, error) {
	//nolint:gosec
	f, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening intrinsics file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading intrinsics file")
	}
	in := &Intrinsics{}
	if err := json.Unmarshal(data, in); err != nil {
		return nil, errors.Wrap(err, "error parsing intrinsics JSON")
	}
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	return in, nil
}

// ClippingRange holds the near/far clipping planes of a camera, in world
// distance units.
type ClippingRange struct {
	Near float64 `json:"near"`
	Far  float64 `json:"far"`
}

// CheckValid checks that 0 < near < far.
func (cr ClippingRange) CheckValid() error {
	if cr.Near <= 0 || math.IsNaN(cr.Near) {
		return errors.Errorf("near clipping plane should be > 0, got %v", cr.Near)
	}
	if cr.Far <= cr.Near || math.IsNaN(cr.Far) {
		return errors.Errorf("far clipping plane should be > near (%v), got %v", cr.Near, cr.Far)
	}
	return nil
}
