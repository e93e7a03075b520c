package compositor

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.medviz.dev/overlay/calib"
	"go.medviz.dev/overlay/render"
	"go.medviz.dev/overlay/scene"
	"go.medviz.dev/overlay/vimage"
)

// ErrClosed is returned by mutating operations on a closed window.
var ErrClosed = errors.New("overlay window is closed")

type windowState int

const (
	stateUninitialized windowState = iota
	stateConfigured
	stateRendering
	stateClosed
)

// Layer is one z-ordered rendering pass of an overlay window. Layers are
// fixed at construction; actors are referenced, never owned, so removing
// them from a layer does not destroy their geometry.
type Layer struct {
	index int
	spec  LayerSpec
	pass  *render.Pass
	image *render.ImageActor
}

// Index returns the layer's z-order position; 0 is back-most.
func (l *Layer) Index() int { return l.index }

// Kind returns the layer's behavior tag.
func (l *Layer) Kind() LayerKind { return l.spec.Kind }

// Masked reports whether video on this layer gets the window alpha mask.
func (l *Layer) Masked() bool { return l.spec.Masked }

// Interactive reports whether the layer receives pointer picking.
func (l *Layer) Interactive() bool { return l.spec.Interactive }

// Camera returns the layer's engine camera.
func (l *Layer) Camera() *render.Camera { return l.pass.Camera }

// Actors returns the layer's current scene actors.
func (l *Layer) Actors() []*scene.Actor { return l.pass.Actors() }

// OverlayWindow composites fixed, ordered layers of video and calibrated 3D
// scene content into one render surface. All methods must be called from a
// single goroutine; the window is an event-loop object, not a shared one.
type OverlayWindow struct {
	logger golog.Logger
	opts   Options

	surface render.Surface
	layers  []*Layer
	state   windowState

	intrinsics *calib.Intrinsics
	clipping   calib.ClippingRange
	mask       *vimage.Mask

	// Dimensions of the most recently imported video frame; zero until the
	// first frame arrives.
	videoW, videoH int
}

// NewOverlayWindow builds a window of width x height with the layer plan in
// opts, on a surface from the given engine. The window starts configured but
// not yet rendering.
func NewOverlayWindow(
	engine render.Engine,
	width, height int,
	opts Options,
	logger golog.Logger,
) (*OverlayWindow, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	surface, err := engine.NewSurface(width, height, render.SurfaceOptions{
		Offscreen: opts.Offscreen,
		Title:     opts.Title,
	})
	if err != nil {
		return nil, err
	}

	w := &OverlayWindow{
		logger:   logger,
		opts:     opts,
		surface:  surface,
		clipping: opts.ClippingRange,
	}
	for i, spec := range opts.Layers {
		layer := &Layer{index: i, spec: spec, pass: render.NewPass(i)}
		switch spec.Kind {
		case LayerVideo:
			layer.image = render.NewImageActor()
			// A masked layer only shows once a mask arrives; an unmasked
			// frame there would opaquely cover the scene layer below it.
			layer.image.SetVisible(!spec.Masked)
			layer.pass.SetImageActor(layer.image)
		case LayerScene:
			layer.pass.WritesDepth = true
			layer.pass.DepthPeeling = render.DepthPeeling{
				Enabled:        true,
				MaxPeels:       opts.MaxPeels,
				OcclusionRatio: opts.OcclusionRatio,
			}
			placement, err := calib.PlaceCamera(calib.Identity(), true)
			if err != nil {
				return nil, err
			}
			layer.pass.Camera.ApplyPlacement(placement)
			layer.pass.Camera.ClippingRange = w.clipping
		case LayerAnnotation:
		}
		w.layers = append(w.layers, layer)
		surface.AddPass(layer.pass)
	}
	w.state = stateConfigured
	return w, nil
}

// NumLayers returns the number of layers in the window's plan.
func (w *OverlayWindow) NumLayers() int { return len(w.layers) }

// Layer returns the layer at the given z-order index.
func (w *OverlayWindow) Layer(index int) (*Layer, error) {
	if index < 0 || index >= len(w.layers) {
		return nil, errors.Errorf("layer index %d out of range [0-%d]", index, len(w.layers)-1)
	}
	return w.layers[index], nil
}

// Camera returns the camera of the layer at the given index.
func (w *OverlayWindow) Camera(index int) (*render.Camera, error) {
	layer, err := w.Layer(index)
	if err != nil {
		return nil, err
	}
	return layer.Camera(), nil
}

// CameraState snapshots the camera of the layer at the given index.
func (w *OverlayWindow) CameraState(index int) (render.CameraState, error) {
	cam, err := w.Camera(index)
	if err != nil {
		return render.CameraState{}, err
	}
	return cam.State(), nil
}

// SetCameraState restores a camera snapshot onto the layer at the given
// index.
func (w *OverlayWindow) SetCameraState(index int, state render.CameraState) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	cam, err := w.Camera(index)
	if err != nil {
		return err
	}
	cam.SetState(state)
	return nil
}

// AddActors appends scene actors to a layer's drawable collection. Video
// layers reject actors. With ResetCameraOnAdd set, the layer's camera is
// refit to frame all of its actors, unless it is driven by a calibrated
// projection.
func (w *OverlayWindow) AddActors(index int, actors ...*scene.Actor) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	layer, err := w.Layer(index)
	if err != nil {
		return err
	}
	if layer.spec.Kind == LayerVideo {
		return errors.Errorf("layer %d hosts video and cannot hold scene actors", index)
	}
	for _, actor := range actors {
		if actor == nil {
			return errors.New("actor is nil")
		}
	}
	for _, actor := range actors {
		layer.pass.AddActor(actor)
	}
	if w.opts.ResetCameraOnAdd && !layer.Camera().UseExplicitProjection {
		w.resetCamera(layer)
	}
	return nil
}

// RemoveAllActors clears a layer's drawable collection. Idempotent.
func (w *OverlayWindow) RemoveAllActors(index int) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	layer, err := w.Layer(index)
	if err != nil {
		return err
	}
	layer.pass.RemoveAllActors()
	return nil
}

// resetCamera dollies a layer's camera back until the combined bounding
// sphere of its actors fits the view angle.
func (w *OverlayWindow) resetCamera(layer *Layer) {
	actors := layer.pass.Actors()
	if len(actors) == 0 {
		return
	}
	var center r3.Vector
	for _, a := range actors {
		c, _ := a.Geometry().BoundingSphere()
		center = center.Add(c)
	}
	center = center.Mul(1 / float64(len(actors)))
	radius := 0.0
	for _, a := range actors {
		c, r := a.Geometry().BoundingSphere()
		if d := c.Sub(center).Norm() + r; d > radius {
			radius = d
		}
	}
	if radius == 0 {
		radius = 1
	}

	cam := layer.Camera()
	forward := cam.FocalPoint.Sub(cam.Position)
	if forward.Norm() == 0 {
		forward = r3.Vector{Z: 1}
	}
	forward = forward.Normalize()
	distance := radius / math.Sin(cam.ViewAngle*math.Pi/360)
	cam.FocalPoint = center
	cam.Position = center.Sub(forward.Mul(distance))
	cam.ClippingRange = calib.ClippingRange{
		Near: math.Max(distance-2*radius, distance/100),
		Far:  distance + 2*radius,
	}
}

// Render composites all layers into the surface. Repeated calls with
// unchanged inputs produce the same output.
func (w *OverlayWindow) Render() error {
	if w.state == stateClosed {
		return ErrClosed
	}
	w.state = stateRendering
	return w.surface.Render()
}

// SetVideoImage imports a video frame onto every video layer. A frame whose
// dimensions differ from the previous one triggers a camera and projection
// refit before any pixels are accepted, so no render ever sees the wrong
// aspect ratio. On a closed window the call is a logged no-op, since frame
// ticks routinely race ahead of teardown.
func (w *OverlayWindow) SetVideoImage(frame *vimage.Frame) error {
	if w.state == stateClosed {
		w.logger.Debug("ignoring video frame on closed window")
		return nil
	}
	if frame == nil {
		return errors.New("frame is nil")
	}

	if frame.Width() != w.videoW || frame.Height() != w.videoH {
		w.videoW = frame.Width()
		w.videoH = frame.Height()
		w.refit()
	}

	for _, layer := range w.layers {
		if layer.spec.Kind != LayerVideo {
			continue
		}
		if layer.spec.Masked {
			if w.mask == nil {
				layer.image.SetVisible(false)
				continue
			}
			masked, err := frame.WithAlphaMask(w.mask)
			if err != nil {
				w.logger.Warnw("skipping mask merge", "error", err)
				layer.image.SetVisible(false)
				continue
			}
			layer.image.SetFrame(masked)
			layer.image.SetVisible(true)
			continue
		}
		layer.image.SetFrame(frame)
	}
	return nil
}

// SetVideoMask stores the alpha mask merged into frames on masked video
// layers. The mask must match the current video dimensions, if known.
func (w *OverlayWindow) SetVideoMask(mask *vimage.Mask) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	if mask == nil {
		w.mask = nil
		return nil
	}
	if w.videoW > 0 && (mask.Width() != w.videoW || mask.Height() != w.videoH) {
		return errors.Errorf(
			"mask dimensions (%dx%d) don't match video (%dx%d)",
			mask.Width(), mask.Height(), w.videoW, w.videoH)
	}
	w.mask = mask
	return nil
}

// SetCameraMatrix installs a 3x3 intrinsic matrix and immediately re-runs
// the projection and scissor computation for every scene layer.
func (w *OverlayWindow) SetCameraMatrix(matrix mat.Matrix) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	in, err := calib.IntrinsicsFromMatrix(matrix)
	if err != nil {
		return err
	}
	return w.SetIntrinsics(in)
}

// SetIntrinsics is SetCameraMatrix for callers holding parsed intrinsics.
func (w *OverlayWindow) SetIntrinsics(in *calib.Intrinsics) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	if in == nil {
		return calib.ErrNoIntrinsics
	}
	if err := in.CheckValid(); err != nil {
		return err
	}
	w.intrinsics = in
	w.refit()
	return nil
}

// SetCameraPose drives every scene-layer camera from one camera-to-world
// rigid transform, keeping the layers rigidly locked to the same physical
// camera. On a closed window the call is a logged no-op, like late frame
// ticks.
func (w *OverlayWindow) SetCameraPose(pose mat.Matrix) error {
	if w.state == stateClosed {
		w.logger.Debug("ignoring camera pose on closed window")
		return nil
	}
	placement, err := calib.PlaceCamera(pose, true)
	if err != nil {
		return err
	}
	for _, layer := range w.layers {
		if layer.spec.Kind == LayerScene {
			layer.Camera().ApplyPlacement(placement)
		}
	}
	return nil
}

// SetClippingRange updates the near and far planes of every scene camera and
// recomputes the calibrated projections.
func (w *OverlayWindow) SetClippingRange(clip calib.ClippingRange) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	if err := clip.CheckValid(); err != nil {
		return err
	}
	w.clipping = clip
	for _, layer := range w.layers {
		if layer.spec.Kind == LayerScene {
			layer.Camera().ClippingRange = clip
		}
	}
	w.refit()
	return nil
}

// Resize reacts to a new surface size: the surface is reallocated, video
// cameras are refit and calibrated projections recomputed. A zero dimension
// is a transient layout state; it is skipped with a warning and no stored
// state changes.
func (w *OverlayWindow) Resize(width, height int) error {
	if w.state == stateClosed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		w.logger.Warnw("skipping resize to degenerate size", "width", width, "height", height)
		return nil
	}
	if err := w.surface.Resize(width, height); err != nil {
		return err
	}
	w.refit()
	return nil
}

// refit recomputes everything derived from (surface size, video size,
// intrinsics): the parallel camera fit of video layers and the projection,
// scissor and viewport of scene layers.
func (w *OverlayWindow) refit() {
	width, height := w.surface.Size()
	if width <= 0 || height <= 0 {
		w.logger.Warnw("skipping camera refit on degenerate surface", "width", width, "height", height)
		return
	}
	if w.videoW <= 0 || w.videoH <= 0 {
		return
	}

	fit, err := calib.FitImageToViewport(w.videoW, w.videoH, width, height)
	if err != nil {
		w.logger.Warnw("skipping video camera fit", "error", err)
	} else {
		for _, layer := range w.layers {
			if layer.spec.Kind != LayerVideo {
				continue
			}
			cam := layer.Camera()
			cam.ParallelProjection = true
			cam.ParallelScale = fit.ParallelScale
			cam.FocalPoint = fit.Center
			cam.Position = fit.Center.Add(r3.Vector{Z: -1000})
			cam.ViewUp = r3.Vector{Y: -1}
		}
	}

	if w.intrinsics == nil {
		return
	}
	projection, err := calib.BuildProjection(w.videoW, w.videoH, w.intrinsics, w.clipping, w.opts.AspectRatio)
	if err != nil {
		w.logger.Warnw("skipping projection update", "error", err)
		return
	}
	scissor, err := calib.ComputeScissor(width, height, w.videoW, w.videoH, w.opts.AspectRatio)
	if err != nil {
		w.logger.Warnw("skipping scissor update", "error", err)
		return
	}
	viewport, err := calib.ComputeViewport(width, height, scissor)
	if err != nil {
		w.logger.Warnw("skipping viewport update", "error", err)
		return
	}
	for _, layer := range w.layers {
		if layer.spec.Kind != LayerScene {
			continue
		}
		cam := layer.Camera()
		cam.UseExplicitProjection = true
		cam.Projection = mat.DenseCopyOf(projection)
		cam.UseScissor = true
		cam.Scissor = scissor
		layer.pass.Viewport = viewport
	}
}

// Close releases the render surface. Idempotent; later mutators return
// ErrClosed while frame and pose ticks become logged no-ops.
func (w *OverlayWindow) Close() error {
	if w.state == stateClosed {
		return nil
	}
	w.state = stateClosed
	return w.surface.Close()
}
