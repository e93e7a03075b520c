// Package soft is a pure-Go software rendering engine implementing the
// render.Engine contract. It rasterizes pass geometry with per-pixel
// fragment lists resolved front to back, which gives it real depth-peeling
// semantics without a GPU. It exists so the compositor can run headless and
// so rendering behavior is testable down to the pixel.
package soft

import (
	"image"
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.medviz.dev/overlay/render"
)

// Engine creates software surfaces. All surfaces are effectively offscreen.
type Engine struct {
	logger golog.Logger
}

// NewEngine returns a software engine logging through the given logger.
func NewEngine(logger golog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Name implements render.Engine.
func (e *Engine) Name() string { return "soft" }

// NewSurface implements render.Engine.
func (e *Engine) NewSurface(width, height int, opts render.SurfaceOptions) (render.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("surface size should be positive, got %dx%d", width, height)
	}
	s := &surface{logger: e.logger}
	s.alloc(width, height)
	if !opts.Offscreen {
		e.logger.Debugw("soft engine has no display; rendering offscreen", "title", opts.Title)
	}
	return s, nil
}

type surface struct {
	mu     sync.Mutex
	logger golog.Logger

	width  int
	height int
	passes []*render.Pass

	// Internal buffers are top row first; readback flips to the
	// engine-native bottom-first order.
	color []uint8
	depth []float32

	closed bool
}

func (s *surface) alloc(width, height int) {
	s.width = width
	s.height = height
	s.color = make([]uint8, width*height*4)
	s.depth = make([]float32, width*height)
}

func (s *surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return render.ErrSurfaceClosed
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf("surface size should be positive, got %dx%d", width, height)
	}
	s.alloc(width, height)
	return nil
}

func (s *surface) AddPass(p *render.Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes = append(s.passes, p)
}

func (s *surface) Passes() []*render.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

func (s *surface) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return render.ErrSurfaceClosed
	}

	for i := range s.color {
		s.color[i] = 0
	}
	for i := 3; i < len(s.color); i += 4 {
		s.color[i] = 255
	}
	for i := range s.depth {
		s.depth[i] = 1
	}

	ordered := make([]*render.Pass, len(s.passes))
	copy(ordered, s.passes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, p := range ordered {
		s.renderPass(p)
	}
	return nil
}

// clipRect is the pixel region a pass may touch: its viewport intersected
// with the camera scissor and the surface bounds.
func (s *surface) clipRect(p *render.Pass) image.Rectangle {
	rect := s.viewportRect(p)
	if p.Camera != nil && p.Camera.UseScissor {
		rect = rect.Intersect(p.Camera.Scissor)
	}
	return rect.Intersect(image.Rect(0, 0, s.width, s.height))
}

func (s *surface) renderPass(p *render.Pass) {
	clip := s.clipRect(p)
	if clip.Empty() || p.Camera == nil {
		return
	}

	if img := p.ImageActorOf(); img != nil && img.Visible() && img.Frame() != nil {
		s.drawImageActor(p, img, clip)
	}

	var frags fragmentBuffer
	for _, actor := range p.Actors() {
		if !actor.Visible() {
			continue
		}
		if outline := actor.Outline(); outline != nil {
			s.rasterizeActor(p, outline, clip, &frags)
		}
		s.rasterizeActor(p, actor, clip, &frags)
	}
	s.resolve(p, &frags)
}

func (s *surface) ReadColor() ([]uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, render.ErrSurfaceClosed
	}
	out := make([]uint8, len(s.color))
	stride := s.width * 4
	for y := 0; y < s.height; y++ {
		src := y * stride
		dst := (s.height - 1 - y) * stride
		copy(out[dst:dst+stride], s.color[src:src+stride])
	}
	return out, nil
}

func (s *surface) ReadDepth() ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, render.ErrSurfaceClosed
	}
	out := make([]float32, len(s.depth))
	for y := 0; y < s.height; y++ {
		src := y * s.width
		dst := (s.height - 1 - y) * s.width
		copy(out[dst:dst+s.width], s.depth[src:src+s.width])
	}
	return out, nil
}

func (s *surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.color = nil
	s.depth = nil
	s.passes = nil
	return nil
}
