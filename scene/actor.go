// Package scene defines the drawable objects the overlay compositor renders:
// actors wrapping mesh or point geometry, with validated display properties
// and optional outline companions. Actors are created by loaders and only
// referenced by compositor layers; removing an actor from a layer never
// destroys its geometry.
package scene

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Color is an RGB triple with components in [0,1].
type Color [3]float64

// CheckValid checks every component is within [0,1].
func (c Color) CheckValid() error {
	names := [3]string{"red", "green", "blue"}
	for i, v := range c {
		if v < 0 || v > 1 {
			return errors.Errorf("%s component should be [0-1], got %v", names[i], v)
		}
	}
	return nil
}

// Actor is a drawable object: geometry plus display state. Setters validate
// before mutating, so an actor never holds out-of-range render state.
type Actor struct {
	name     string
	geometry *Geometry

	color    Color
	opacity  float64
	visible  bool
	pickable bool

	userTransform *mat.Dense
	outline       *Actor
}

// NewActor constructs a visible, pickable, fully opaque actor over the given
// geometry.
func NewActor(geometry *Geometry, color Color) (*Actor, error) {
	if geometry == nil {
		return nil, errors.New("geometry is nil")
	}
	if err := color.CheckValid(); err != nil {
		return nil, err
	}
	return &Actor{
		geometry: geometry,
		color:    color,
		opacity:  1.0,
		visible:  true,
		pickable: true,
	}, nil
}

// Name returns the actor's name, which may be empty.
func (a *Actor) Name() string { return a.name }

// SetName sets the actor's name.
func (a *Actor) SetName(name string) error {
	if name == "" {
		return errors.New("name should not be an empty string")
	}
	a.name = name
	return nil
}

// Geometry returns the actor's geometry. The geometry is shared, not copied.
func (a *Actor) Geometry() *Geometry { return a.geometry }

// Color returns the actor's color.
func (a *Actor) Color() Color { return a.color }

// SetColor sets the actor's color, rejecting out-of-range components and
// leaving the previous color in place on error.
func (a *Actor) SetColor(c Color) error {
	if err := c.CheckValid(); err != nil {
		return err
	}
	a.color = c
	return nil
}

// Opacity returns the actor's opacity.
func (a *Actor) Opacity() float64 { return a.opacity }

// SetOpacity sets the actor's opacity, rejecting values outside [0,1].
func (a *Actor) SetOpacity(opacity float64) error {
	if opacity < 0 || opacity > 1 {
		return errors.Errorf("opacity should be [0-1], got %v", opacity)
	}
	a.opacity = opacity
	return nil
}

// Visible reports whether the actor is rendered.
func (a *Actor) Visible() bool { return a.visible }

// SetVisible sets the actor's visibility.
func (a *Actor) SetVisible(visible bool) { a.visible = visible }

// ToggleVisibility flips the actor's visibility.
func (a *Actor) ToggleVisibility() { a.visible = !a.visible }

// Pickable reports whether the actor receives pointer picking.
func (a *Actor) Pickable() bool { return a.pickable }

// SetPickable sets the actor's pickable flag.
func (a *Actor) SetPickable(pickable bool) { a.pickable = pickable }

// UserTransform returns the actor's user-applied rigid transform, or nil if
// none has been set.
func (a *Actor) UserTransform() *mat.Dense { return a.userTransform }

// SetUserTransform applies a rigid transform to the actor at render time.
// The original geometry is not modified. The matrix must be a valid 4x4
// rigid transform.
func (a *Actor) SetUserTransform(transform mat.Matrix) error {
	if transform == nil {
		return errors.New("transform is nil")
	}
	r, c := transform.Dims()
	if r != 4 || c != 4 {
		return errors.Errorf("transform should be 4x4, got %dx%d", r, c)
	}
	if transform.At(3, 0) != 0 || transform.At(3, 1) != 0 || transform.At(3, 2) != 0 || transform.At(3, 3) != 1 {
		return errors.New("transform bottom row should be [0 0 0 1]")
	}
	cp := mat.NewDense(4, 4, nil)
	cp.Copy(transform)
	a.userTransform = cp
	return nil
}

// EnableOutline attaches an outline companion actor: the same geometry drawn
// in the given color at full opacity. The compositor renders the companion
// alongside the actor, keyed to the layer camera.
func (a *Actor) EnableOutline(c Color) error {
	outline, err := NewActor(a.geometry, c)
	if err != nil {
		return err
	}
	outline.pickable = false
	a.outline = outline
	return nil
}

// DisableOutline removes the outline companion.
func (a *Actor) DisableOutline() { a.outline = nil }

// Outline returns the outline companion actor, or nil.
func (a *Actor) Outline() *Actor { return a.outline }
