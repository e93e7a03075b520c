// Package compositor implements the multi-layer calibrated overlay window:
// ordered video and scene layers whose virtual cameras track a real camera's
// intrinsic and extrinsic calibration, so that projected 3D anatomy lines up
// pixel-exactly with the video it overlays.
package compositor

import (
	"github.com/pkg/errors"

	"go.medviz.dev/overlay/calib"
)

// LayerKind selects the per-layer behavior of the compositor.
type LayerKind int

const (
	// LayerVideo hosts a flat video image drawn by a parallel camera fitted
	// to the viewport. Video layers reject scene actors.
	LayerVideo LayerKind = iota
	// LayerScene hosts 3D actors drawn by the calibrated camera.
	LayerScene
	// LayerAnnotation hosts screen-locked 3D actors on its own free camera,
	// excluded from calibrated pose updates.
	LayerAnnotation
)

func (k LayerKind) String() string {
	switch k {
	case LayerVideo:
		return "video"
	case LayerScene:
		return "scene"
	case LayerAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// LayerSpec declares one layer of a window's layer plan. Order in the plan is
// z-order: index 0 draws back-most.
type LayerSpec struct {
	Kind LayerKind
	// Masked marks a video layer whose frames get the window's alpha mask
	// merged in, for see-through overlays.
	Masked bool
	// Interactive marks the layer that receives pointer picking.
	Interactive bool
}

// Options configures an overlay window.
type Options struct {
	// Layers is the layer plan. Empty means the standard five-layer overlay
	// plan of DefaultLayerPlan.
	Layers []LayerSpec

	// ClippingRange applies to every calibrated scene camera.
	ClippingRange calib.ClippingRange

	// AspectRatio is the display pixel aspect ratio used in projection and
	// scissor computations.
	AspectRatio float64

	// ResetCameraOnAdd auto-fits an uncalibrated layer camera to frame its
	// actors after AddActors.
	ResetCameraOnAdd bool

	// MaxPeels and OcclusionRatio bound depth-peeled transparency on scene
	// layers.
	MaxPeels       int
	OcclusionRatio float64

	Offscreen bool
	Title     string
}

// DefaultLayerPlan is the standard overlay arrangement: video behind,
// calibrated scene, masked see-through video, calibrated scene in front, and
// an annotation layer on top.
func DefaultLayerPlan() []LayerSpec {
	return []LayerSpec{
		{Kind: LayerVideo},
		{Kind: LayerScene},
		{Kind: LayerVideo, Masked: true},
		{Kind: LayerScene, Interactive: true},
		{Kind: LayerAnnotation},
	}
}

// DefaultOptions returns the options of a standard overlay window.
func DefaultOptions() Options {
	return Options{
		Layers:         DefaultLayerPlan(),
		ClippingRange:  calib.ClippingRange{Near: 1, Far: 1000},
		AspectRatio:    1,
		MaxPeels:       100,
		OcclusionRatio: 0.1,
	}
}

func (o *Options) validate() error {
	if len(o.Layers) == 0 {
		o.Layers = DefaultLayerPlan()
	}
	if o.AspectRatio == 0 {
		o.AspectRatio = 1
	}
	if o.AspectRatio < 0 {
		return errors.Errorf("aspect ratio should be positive, got %v", o.AspectRatio)
	}
	if o.ClippingRange == (calib.ClippingRange{}) {
		o.ClippingRange = calib.ClippingRange{Near: 1, Far: 1000}
	}
	if err := o.ClippingRange.CheckValid(); err != nil {
		return err
	}
	if o.MaxPeels == 0 {
		o.MaxPeels = 100
	}
	if o.MaxPeels < 0 {
		return errors.Errorf("max peels should be positive, got %d", o.MaxPeels)
	}
	if o.OcclusionRatio == 0 {
		o.OcclusionRatio = 0.1
	}
	if o.OcclusionRatio < 0 || o.OcclusionRatio >= 1 {
		return errors.Errorf("occlusion ratio should be [0-1), got %v", o.OcclusionRatio)
	}
	for _, spec := range o.Layers {
		if spec.Masked && spec.Kind != LayerVideo {
			return errors.Errorf("only video layers can be masked, got %v", spec.Kind)
		}
	}
	return nil
}
