// Package render defines the interface between the overlay compositor and a
// rendering engine: offscreen or windowed surfaces, layered render passes
// with independent cameras, and raw buffer readback. The companion soft
// package provides a pure-Go software engine used as the reference
// implementation and in tests.
package render

import (
	"github.com/pkg/errors"

	"go.medviz.dev/overlay/calib"
	"go.medviz.dev/overlay/scene"
	"go.medviz.dev/overlay/vimage"
)

// ErrSurfaceClosed is returned by surface operations after Close.
var ErrSurfaceClosed = errors.New("render surface is closed")

// SurfaceOptions configures surface creation.
type SurfaceOptions struct {
	// Offscreen surfaces never present to a display; readback is the only
	// way to observe them.
	Offscreen bool
	Title     string
}

// Engine creates render surfaces. Implementations are expected to be safe
// for use from a single goroutine per surface.
type Engine interface {
	// Name identifies the engine implementation.
	Name() string
	// NewSurface allocates a width x height render target.
	NewSurface(width, height int, opts SurfaceOptions) (Surface, error)
}

// Surface is a render target composed of ordered passes.
//
// Readback buffers use the engine-native row order, bottom row first.
// Callers that want conventional top-down images must flip exactly once.
type Surface interface {
	// Size returns the current width and height in pixels.
	Size() (width, height int)
	// Resize reallocates the target. Pass contents are preserved.
	Resize(width, height int) error
	// AddPass appends a pass; passes render in ascending Order.
	AddPass(p *Pass)
	// Passes returns the registered passes.
	Passes() []*Pass
	// Render draws all passes into the surface's buffers.
	Render() error
	// ReadColor returns the RGBA color buffer, 4 bytes per pixel,
	// bottom row first.
	ReadColor() ([]uint8, error)
	// ReadDepth returns the normalized [0,1] depth buffer, bottom row
	// first. Only passes with WritesDepth set contribute.
	ReadDepth() ([]float32, error)
	// Close releases the surface. Further operations return
	// ErrSurfaceClosed.
	Close() error
}

// DepthPeeling bounds the order-independent transparency resolve of a pass.
type DepthPeeling struct {
	Enabled bool
	// MaxPeels caps how many translucent fragments are resolved per pixel.
	MaxPeels int
	// OcclusionRatio is the remaining-transmittance threshold below which
	// further fragments are considered occluded.
	OcclusionRatio float64
}

// Pass is one rendering layer: a camera, a normalized viewport, and a set of
// drawables. A pass draws either polygonal actors, an image actor, or both;
// the compositor keeps video and geometry on separate passes.
type Pass struct {
	// Order is the compositing position; lower orders draw first.
	Order int

	Camera   *Camera
	Viewport calib.Viewport

	DepthPeeling DepthPeeling

	// WritesDepth marks passes whose geometry should land in the surface
	// depth buffer. Video passes leave it unset.
	WritesDepth bool

	actors []*scene.Actor
	image  *ImageActor
}

// NewPass returns a pass with a full-target viewport and its own camera.
func NewPass(order int) *Pass {
	return &Pass{
		Order:    order,
		Camera:   NewCamera(),
		Viewport: calib.Viewport{XMin: 0, YMin: 0, XMax: 1, YMax: 1},
	}
}

// AddActor appends a polygonal actor to the pass.
func (p *Pass) AddActor(a *scene.Actor) {
	p.actors = append(p.actors, a)
}

// Actors returns the pass's polygonal actors.
func (p *Pass) Actors() []*scene.Actor {
	return p.actors
}

// RemoveAllActors detaches every polygonal actor. Image actors stay.
func (p *Pass) RemoveAllActors() {
	p.actors = nil
}

// SetImageActor installs the pass's single image actor.
func (p *Pass) SetImageActor(a *ImageActor) {
	p.image = a
}

// ImageActorOf returns the pass's image actor, or nil.
func (p *Pass) ImageActorOf() *ImageActor {
	return p.image
}

// ImageActor draws a video frame as a screen-space textured plane. The frame
// plane lives in world units of image pixels with the pixel grid on z=0; the
// owning pass's camera is expected to be a parallel projection fitted with
// calib.FitImageToViewport.
type ImageActor struct {
	frame   *vimage.Frame
	visible bool
}

// NewImageActor returns a visible image actor with no frame yet.
func NewImageActor() *ImageActor {
	return &ImageActor{visible: true}
}

// SetFrame swaps in the frame to draw. The actor keeps the reference, not a
// copy; vimage.Frame buffers are immutable once built.
func (a *ImageActor) SetFrame(f *vimage.Frame) {
	a.frame = f
}

// Frame returns the current frame, or nil before the first one arrives.
func (a *ImageActor) Frame() *vimage.Frame {
	return a.frame
}

// SetVisible toggles drawing of the actor.
func (a *ImageActor) SetVisible(visible bool) {
	a.visible = visible
}

// Visible reports whether the actor draws.
func (a *ImageActor) Visible() bool {
	return a.visible
}
