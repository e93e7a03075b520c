package soft

import (
	"image"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.medviz.dev/overlay/render"
	"go.medviz.dev/overlay/scene"
)

var errNoProjection = errors.New("camera has explicit projection enabled but no matrix set")

type fragment struct {
	depth   float32
	r, g, b float64
	alpha   float64
}

// fragmentBuffer accumulates translucent fragments per pixel for one pass.
type fragmentBuffer struct {
	pix map[int][]fragment
}

func (b *fragmentBuffer) add(idx int, f fragment) {
	if b.pix == nil {
		b.pix = map[int][]fragment{}
	}
	b.pix[idx] = append(b.pix[idx], f)
}

// viewportRect converts a pass's normalized viewport to surface pixels.
func (s *surface) viewportRect(p *render.Pass) image.Rectangle {
	vp := p.Viewport
	return image.Rect(
		int(math.Round(vp.XMin*float64(s.width))),
		int(math.Round(vp.YMin*float64(s.height))),
		int(math.Round(vp.XMax*float64(s.width))),
		int(math.Round(vp.YMax*float64(s.height))),
	)
}

// drawImageActor inverse-maps every viewport pixel onto the image plane
// through the pass's parallel camera and samples the frame nearest-neighbor.
func (s *surface) drawImageActor(p *render.Pass, actor *render.ImageActor, clip image.Rectangle) {
	cam := p.Camera
	if !cam.ParallelProjection || cam.ParallelScale <= 0 {
		s.logger.Warnw("image actor requires a parallel camera; skipping", "order", p.Order)
		return
	}
	vp := s.viewportRect(p)
	if vp.Empty() {
		return
	}
	vpW := float64(vp.Dx())
	vpH := float64(vp.Dy())
	aspect := vpW / vpH

	forward := cam.FocalPoint.Sub(cam.Position).Normalize()
	side := forward.Cross(cam.ViewUp).Normalize()
	up := side.Cross(forward)

	frame := actor.Frame()
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			ndcX := 2*(float64(x)+0.5-float64(vp.Min.X))/vpW - 1
			ndcY := 1 - 2*(float64(y)+0.5-float64(vp.Min.Y))/vpH
			camX := ndcX * cam.ParallelScale * aspect
			camY := ndcY * cam.ParallelScale

			ix := int(math.Round(cam.Position.X + side.X*camX + up.X*camY))
			iy := int(math.Round(cam.Position.Y + side.Y*camX + up.Y*camY))
			if ix < 0 || iy < 0 || ix >= frame.Width() || iy >= frame.Height() {
				continue
			}
			r, g, b, a := frame.RGBA(ix, iy)
			s.blendPixel(y*s.width+x, float64(r)/255, float64(g)/255, float64(b)/255, float64(a)/255)
		}
	}
}

// rasterizeActor projects an actor's geometry through the pass camera and
// emits fragments for its triangles, or point splats if it has none.
func (s *surface) rasterizeActor(p *render.Pass, actor *scene.Actor, clip image.Rectangle, frags *fragmentBuffer) {
	full, err := s.passMatrix(p, actor)
	if err != nil {
		s.logger.Warnw("skipping actor", "name", actor.Name(), "error", err)
		return
	}
	vp := s.viewportRect(p)
	if vp.Empty() {
		return
	}
	vpW := float64(vp.Dx())
	vpH := float64(vp.Dy())

	geometry := actor.Geometry()
	type screenVertex struct {
		x, y  float64
		depth float64
		ok    bool
	}
	verts := make([]screenVertex, len(geometry.Points))
	for i, pt := range geometry.Points {
		clipPos := full.Mul4x1(mgl64.Vec4{pt.X, pt.Y, pt.Z, 1})
		w := clipPos.W()
		if w <= 1e-9 {
			continue
		}
		ndcX := clipPos.X() / w
		ndcY := clipPos.Y() / w
		ndcZ := clipPos.Z() / w
		verts[i] = screenVertex{
			x:     float64(vp.Min.X) + (ndcX+1)/2*vpW,
			y:     float64(vp.Min.Y) + (1-ndcY)/2*vpH,
			depth: (ndcZ + 1) / 2,
			ok:    true,
		}
	}

	color := actor.Color()
	alpha := actor.Opacity()

	if len(geometry.Triangles) == 0 {
		for _, v := range verts {
			if !v.ok || v.depth < 0 || v.depth > 1 {
				continue
			}
			x := int(math.Round(v.x))
			y := int(math.Round(v.y))
			if !(image.Point{X: x, Y: y}).In(clip) {
				continue
			}
			frags.add(y*s.width+x, fragment{
				depth: float32(v.depth),
				r:     color[0], g: color[1], b: color[2],
				alpha: alpha,
			})
		}
		return
	}

	for _, tri := range geometry.Triangles {
		v0, v1, v2 := verts[tri[0]], verts[tri[1]], verts[tri[2]]
		if !v0.ok || !v1.ok || !v2.ok {
			continue
		}
		area := (v1.x-v0.x)*(v2.y-v0.y) - (v2.x-v0.x)*(v1.y-v0.y)
		if math.Abs(area) < 1e-12 {
			continue
		}

		minX := int(math.Floor(min3(v0.x, v1.x, v2.x)))
		maxX := int(math.Ceil(max3(v0.x, v1.x, v2.x)))
		minY := int(math.Floor(min3(v0.y, v1.y, v2.y)))
		maxY := int(math.Ceil(max3(v0.y, v1.y, v2.y)))
		box := image.Rect(minX, minY, maxX+1, maxY+1).Intersect(clip)

		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				px := float64(x) + 0.5
				py := float64(y) + 0.5
				w0 := ((v1.x-px)*(v2.y-py) - (v2.x-px)*(v1.y-py)) / area
				w1 := ((v2.x-px)*(v0.y-py) - (v0.x-px)*(v2.y-py)) / area
				w2 := 1 - w0 - w1
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				depth := w0*v0.depth + w1*v1.depth + w2*v2.depth
				if depth < 0 || depth > 1 {
					continue
				}
				frags.add(y*s.width+x, fragment{
					depth: float32(depth),
					r:     color[0], g: color[1], b: color[2],
					alpha: alpha,
				})
			}
		}
	}
}

// resolve blends each pixel's fragments front to back, honoring the pass's
// depth-peeling bounds, then composites the result over the framebuffer.
func (s *surface) resolve(p *render.Pass, frags *fragmentBuffer) {
	occlusion := p.DepthPeeling.OcclusionRatio
	for idx, list := range frags.pix {
		sort.Slice(list, func(i, j int) bool { return list[i].depth < list[j].depth })

		peels := len(list)
		if p.DepthPeeling.Enabled && p.DepthPeeling.MaxPeels > 0 && p.DepthPeeling.MaxPeels < peels {
			peels = p.DepthPeeling.MaxPeels
		}

		var r, g, b float64
		transmittance := 1.0
		for i := 0; i < peels; i++ {
			f := list[i]
			r += transmittance * f.alpha * f.r
			g += transmittance * f.alpha * f.g
			b += transmittance * f.alpha * f.b
			transmittance *= 1 - f.alpha
			if p.DepthPeeling.Enabled && transmittance <= occlusion {
				break
			}
		}
		s.blendPixelPremultiplied(idx, r, g, b, 1-transmittance)

		if p.WritesDepth && list[0].alpha > 0 && list[0].depth < s.depth[idx] {
			s.depth[idx] = list[0].depth
		}
	}
}

// blendPixel composites a straight-alpha color over the framebuffer.
func (s *surface) blendPixel(idx int, r, g, b, a float64) {
	s.blendPixelPremultiplied(idx, r*a, g*a, b*a, a)
}

func (s *surface) blendPixelPremultiplied(idx int, r, g, b, a float64) {
	if a <= 0 {
		return
	}
	o := idx * 4
	inv := 1 - a
	s.color[o] = clampByte(r*255 + inv*float64(s.color[o]))
	s.color[o+1] = clampByte(g*255 + inv*float64(s.color[o+1]))
	s.color[o+2] = clampByte(b*255 + inv*float64(s.color[o+2]))
	s.color[o+3] = 255
}

// passMatrix builds the combined projection * view * user transform of an
// actor under the pass's camera.
func (s *surface) passMatrix(p *render.Pass, actor *scene.Actor) (mgl64.Mat4, error) {
	cam := p.Camera
	vp := s.viewportRect(p)
	aspect := 1.0
	if vp.Dy() > 0 {
		aspect = float64(vp.Dx()) / float64(vp.Dy())
	}

	proj, err := cameraProjection(cam, aspect)
	if err != nil {
		return mgl64.Mat4{}, err
	}

	combined := mat.NewDense(4, 4, nil)
	combined.Mul(proj, cam.ViewMatrix())
	if user := actor.UserTransform(); user != nil {
		combined.Mul(mat.DenseCopyOf(combined), user)
	}
	return mat4FromDense(combined), nil
}

func cameraProjection(cam *render.Camera, aspect float64) (*mat.Dense, error) {
	if cam.UseExplicitProjection {
		if cam.Projection == nil {
			return nil, errNoProjection
		}
		return cam.Projection, nil
	}
	near := cam.ClippingRange.Near
	far := cam.ClippingRange.Far
	m := mat.NewDense(4, 4, nil)
	if cam.ParallelProjection {
		m.Set(0, 0, 1/(cam.ParallelScale*aspect))
		m.Set(1, 1, 1/cam.ParallelScale)
		m.Set(2, 2, -2/(far-near))
		m.Set(2, 3, -(far+near)/(far-near))
		m.Set(3, 3, 1)
		return m, nil
	}
	f := 1 / math.Tan(cam.ViewAngle*math.Pi/360)
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, -(far+near)/(far-near))
	m.Set(2, 3, -2*far*near/(far-near))
	m.Set(3, 2, -1)
	return m, nil
}

// mat4FromDense converts a row-major gonum 4x4 to mgl64's column-major form.
func mat4FromDense(d *mat.Dense) mgl64.Mat4 {
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = d.At(r, c)
		}
	}
	return m
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
