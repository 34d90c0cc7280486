package elviz

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/elviz/internal/parallel"
	"github.com/gogpu/elviz/internal/raster"
)

// maxSoftwareSamples bounds the per-target float storage of the software
// device (layers * width * height * samples).
const maxSoftwareSamples = 1 << 28

// SoftwareDevice is a CPU implementation of depth peeling. It produces the
// same layer decomposition as the GPU device and is always registered.
// Compositing runs in row bands on a worker pool.
type SoftwareDevice struct {
	mu   sync.Mutex
	pool *parallel.WorkerPool
}

// NewSoftwareDevice creates a software device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{pool: parallel.NewWorkerPool(0)}
}

// Name implements Device.
func (d *SoftwareDevice) Name() string { return DeviceSoftware }

// Close implements Device. It stops the worker pool; targets created
// earlier keep working on the calling goroutine.
func (d *SoftwareDevice) Close() { d.pool.Close() }

// NewTarget implements Device.
func (d *SoftwareDevice) NewTarget(cfg TargetConfig) (Target, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Passes < 1 || !raster.SupportedSamples(cfg.Samples) {
		return nil, fmt.Errorf("%w: invalid config %+v", ErrTargetAllocation, cfg)
	}
	n := cfg.Width * cfg.Height * cfg.Samples
	if n/cfg.Samples/cfg.Height != cfg.Width || n > maxSoftwareSamples/(cfg.Passes+2) {
		return nil, fmt.Errorf("%w: %dx%d with %d samples and %d passes is too large",
			ErrTargetAllocation, cfg.Width, cfg.Height, cfg.Samples, cfg.Passes)
	}
	t := &softwareTarget{
		dev:    d,
		cfg:    cfg,
		raster: raster.NewRasterizer(cfg.Width, cfg.Height, cfg.Samples),
		layers: make([][]float32, cfg.Passes),
	}
	for i := range t.layers {
		t.layers[i] = make([]float32, 4*n)
	}
	t.depth[0] = make([]float32, n)
	t.depth[1] = make([]float32, n)
	Logger().Debug("elviz: software target created",
		"width", cfg.Width, "height", cfg.Height, "samples", cfg.Samples, "passes", cfg.Passes)
	return t, nil
}

// softwareTarget stores every buffer per sample: index (y*width+x)*samples+s.
type softwareTarget struct {
	dev    *SoftwareDevice
	cfg    TargetConfig
	raster *raster.Rasterizer
	layers [][]float32
	depth  [2][]float32
}

// Render implements Target.
func (t *softwareTarget) Render(f *Frame, dst *Image) error {
	if dst.Width() != t.cfg.Width || dst.Height() != t.cfg.Height {
		return fmt.Errorf("elviz: destination is %dx%d, target is %dx%d",
			dst.Width(), dst.Height(), t.cfg.Width, t.cfg.Height)
	}
	t.dev.mu.Lock()
	defer t.dev.mu.Unlock()

	peeled, current := t.depth[0], t.depth[1]
	for k, layer := range t.layers {
		clear(layer)
		for i := range current {
			current[i] = 1
		}
		for _, b := range f.Batches {
			t.drawBatch(b, layer, peeled, current, k > 0)
		}
		peeled, current = current, peeled
	}
	t.composite(f.Background, dst)
	return nil
}

// drawBatch runs one batch through a peeling pass: depth test LESS against
// current, and with peel set, discard at or in front of the peeled depth.
func (t *softwareTarget) drawBatch(b *Batch, layer, peeled, current []float32, peel bool) {
	s := t.cfg.Samples
	w := t.cfg.Width
	mat := &b.Material
	verts := b.Vertices
	for i := 0; i+2 < len(verts); i += 3 {
		tri := verts[i : i+3 : i+3]
		t.raster.Triangle(tri[0].Clip, tri[1].Clip, tri[2].Clip, func(fr *raster.Fragment) {
			idx := (fr.Y*w+fr.X)*s + fr.Sample
			if peel && fr.Depth <= peeled[idx] {
				return
			}
			if fr.Depth >= current[idx] {
				return
			}
			current[idx] = fr.Depth

			c := interpolate4(tri, fr.Bary, func(v *Vertex) mgl32.Vec4 { return v.Color })
			if mat.Lit {
				world := interpolate3(tri, fr.Bary, func(v *Vertex) mgl32.Vec3 { return v.World })
				normal := interpolate3(tri, fr.Bary, func(v *Vertex) mgl32.Vec3 { return v.Normal })
				c = mat.Shade(c, world, normal)
			}
			copy(layer[4*idx:4*idx+4], c[:])
		})
	}
}

// interpolate4 and interpolate3 weight by the second and third
// barycentrics only, so an attribute equal at all three vertices comes back
// exactly even when the weights do not sum to 1 in float32.
func interpolate4(tri []Vertex, bary [3]float32, attr func(*Vertex) mgl32.Vec4) mgl32.Vec4 {
	a0 := attr(&tri[0])
	return a0.Add(attr(&tri[1]).Sub(a0).Mul(bary[1])).Add(attr(&tri[2]).Sub(a0).Mul(bary[2]))
}

func interpolate3(tri []Vertex, bary [3]float32, attr func(*Vertex) mgl32.Vec3) mgl32.Vec3 {
	a0 := attr(&tri[0])
	return a0.Add(attr(&tri[1]).Sub(a0).Mul(bary[1])).Add(attr(&tri[2]).Sub(a0).Mul(bary[2]))
}

// composite blends the layers back to front over the background, per
// sample, and resolves the samples into dst. Color uses
// (srcAlpha, 1-srcAlpha); alpha uses (1, 1-srcAlpha) so an opaque
// background stays opaque.
func (t *softwareTarget) composite(bg RGBA, dst *Image) {
	w := t.cfg.Width
	t.dev.pool.Rows(t.cfg.Height, func(y0, y1 int) {
		t.compositeRange(bg, dst.Pix(), y0*w, y1*w)
	})
}

func (t *softwareTarget) compositeRange(bg RGBA, pix []float32, p0, p1 int) {
	s := t.cfg.Samples
	for p := p0; p < p1; p++ {
		var sum [4]float64
		for j := 0; j < s; j++ {
			idx := p*s + j
			c := [4]float32{bg.R, bg.G, bg.B, bg.A}
			for k := len(t.layers) - 1; k >= 0; k-- {
				src := t.layers[k][4*idx : 4*idx+4 : 4*idx+4]
				a := src[3]
				c[0] = src[0]*a + c[0]*(1-a)
				c[1] = src[1]*a + c[1]*(1-a)
				c[2] = src[2]*a + c[2]*(1-a)
				c[3] = a + c[3]*(1-a)
			}
			for i := range sum {
				sum[i] += float64(c[i])
			}
		}
		for i := range sum {
			pix[4*p+i] = float32(sum[i] / float64(s))
		}
	}
}

// Destroy implements Target.
func (t *softwareTarget) Destroy() {
	t.layers = nil
	t.depth = [2][]float32{}
}
