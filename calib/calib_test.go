package calib

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestIntrinsicsCheckValid(t *testing.T) {
	t.Run("nil intrinsics", func(t *testing.T) {
		var in *Intrinsics
		test.That(t, in.CheckValid(), test.ShouldBeError, ErrNoIntrinsics)
	})

	t.Run("valid", func(t *testing.T) {
		in := &Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
		test.That(t, in.CheckValid(), test.ShouldBeNil)
	})

	t.Run("non-positive focal length", func(t *testing.T) {
		in := &Intrinsics{Fx: 0, Fy: 500, Cx: 320, Cy: 240}
		test.That(t, in.CheckValid(), test.ShouldNotBeNil)
	})

	t.Run("negative principal point", func(t *testing.T) {
		in := &Intrinsics{Fx: 500, Fy: 500, Cx: -1, Cy: 240}
		test.That(t, in.CheckValid(), test.ShouldNotBeNil)
	})
}

func TestIntrinsicsFromMatrix(t *testing.T) {
	t.Run("round trip through Matrix", func(t *testing.T) {
		in := &Intrinsics{Fx: 2012.186314, Fy: 2017.966019, Cx: 944.7173708, Cy: 617.1093984}
		back, err := IntrinsicsFromMatrix(in.Matrix())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back, test.ShouldResemble, in)
	})

	t.Run("rejects wrong shape", func(t *testing.T) {
		_, err := IntrinsicsFromMatrix(mat.NewDense(4, 4, nil))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("rejects skew", func(t *testing.T) {
		m := (&Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}).Matrix()
		m.Set(0, 1, 0.5)
		_, err := IntrinsicsFromMatrix(m)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "skew")
	})

	t.Run("rejects bad bottom row", func(t *testing.T) {
		m := (&Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}).Matrix()
		m.Set(2, 2, 2)
		_, err := IntrinsicsFromMatrix(m)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calib.json")
		err := os.WriteFile(path, []byte(`{"fx": 500, "fy": 505, "cx": 320, "cy": 240}`), 0o600)
		test.That(t, err, test.ShouldBeNil)
		in, err := IntrinsicsFromJSONFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, in.Fy, test.ShouldEqual, 505)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := IntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "nope.json"))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("invalid contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calib.json")
		err := os.WriteFile(path, []byte(`{"fx": -1}`), 0o600)
		test.That(t, err, test.ShouldBeNil)
		_, err = IntrinsicsFromJSONFile(path)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestClippingRange(t *testing.T) {
	test.That(t, ClippingRange{Near: 1, Far: 1000}.CheckValid(), test.ShouldBeNil)
	test.That(t, ClippingRange{Near: 0, Far: 1000}.CheckValid(), test.ShouldNotBeNil)
	test.That(t, ClippingRange{Near: 10, Far: 10}.CheckValid(), test.ShouldNotBeNil)
}
