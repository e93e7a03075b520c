package scene

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testGeometry(t *testing.T) *Geometry {
	t.Helper()
	g, err := NewGeometry([]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}, [][3]int{{0, 1, 2}})
	test.That(t, err, test.ShouldBeNil)
	return g
}

func TestActorColorValidation(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)

	t.Run("valid color accepted", func(t *testing.T) {
		test.That(t, actor.SetColor(Color{0, 0.5, 1}), test.ShouldBeNil)
		test.That(t, actor.Color(), test.ShouldResemble, Color{0, 0.5, 1})
	})

	t.Run("out of range rejected, prior state unchanged", func(t *testing.T) {
		err := actor.SetColor(Color{1.5, 0, 0})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "red component")
		test.That(t, actor.Color(), test.ShouldResemble, Color{0, 0.5, 1})

		err = actor.SetColor(Color{0, -0.1, 0})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "green component")
		test.That(t, actor.Color(), test.ShouldResemble, Color{0, 0.5, 1})
	})

	t.Run("constructor rejects bad color", func(t *testing.T) {
		_, err := NewActor(testGeometry(t), Color{0, 0, 2})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestActorOpacityValidation(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actor.SetOpacity(0.25), test.ShouldBeNil)
	test.That(t, actor.Opacity(), test.ShouldEqual, 0.25)

	test.That(t, actor.SetOpacity(-0.1), test.ShouldNotBeNil)
	test.That(t, actor.Opacity(), test.ShouldEqual, 0.25)
	test.That(t, actor.SetOpacity(1.1), test.ShouldNotBeNil)
	test.That(t, actor.Opacity(), test.ShouldEqual, 0.25)
}

func TestActorVisibility(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, actor.Visible(), test.ShouldBeTrue)
	actor.SetVisible(false)
	test.That(t, actor.Visible(), test.ShouldBeFalse)
	actor.ToggleVisibility()
	test.That(t, actor.Visible(), test.ShouldBeTrue)
}

func TestActorUserTransform(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)

	t.Run("valid transform copied in", func(t *testing.T) {
		transform := mat.NewDense(4, 4, nil)
		for i := 0; i < 4; i++ {
			transform.Set(i, i, 1)
		}
		transform.Set(0, 3, 10)
		test.That(t, actor.SetUserTransform(transform), test.ShouldBeNil)
		transform.Set(0, 3, 99)
		test.That(t, actor.UserTransform().At(0, 3), test.ShouldEqual, 10)
	})

	t.Run("wrong shape rejected", func(t *testing.T) {
		test.That(t, actor.SetUserTransform(mat.NewDense(3, 3, nil)), test.ShouldNotBeNil)
	})

	t.Run("bad bottom row rejected", func(t *testing.T) {
		bad := mat.NewDense(4, 4, nil)
		bad.Set(3, 3, 2)
		test.That(t, actor.SetUserTransform(bad), test.ShouldNotBeNil)
	})
}

func TestActorOutline(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, actor.Outline(), test.ShouldBeNil)

	test.That(t, actor.EnableOutline(Color{1, 1, 1}), test.ShouldBeNil)
	test.That(t, actor.Outline(), test.ShouldNotBeNil)
	test.That(t, actor.Outline().Geometry(), test.ShouldEqual, actor.Geometry())
	test.That(t, actor.Outline().Pickable(), test.ShouldBeFalse)

	actor.DisableOutline()
	test.That(t, actor.Outline(), test.ShouldBeNil)
}

func TestActorName(t *testing.T) {
	actor, err := NewActor(testGeometry(t), Color{1, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, actor.SetName(""), test.ShouldNotBeNil)
	test.That(t, actor.SetName("liver"), test.ShouldBeNil)
	test.That(t, actor.Name(), test.ShouldEqual, "liver")
}
