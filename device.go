package elviz

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Device is a render backend able to allocate depth-peeling targets.
//
// Devices are provided by backend packages and selected through the device
// registry. The software device is always available; the GPU device is
// enabled by importing the gpu package:
//
//	import _ "github.com/gogpu/elviz/gpu"
type Device interface {
	// Name returns the registry name of the device (e.g., "software", "gpu").
	Name() string

	// NewTarget allocates the off-screen targets for one Scene.
	NewTarget(cfg TargetConfig) (Target, error)

	// Close releases the device. Targets created by it must be destroyed first.
	Close()
}

// TargetConfig describes the off-screen targets of a Scene.
type TargetConfig struct {
	Width, Height int
	// Samples is the multisample count; 1 means no multisampling.
	Samples int
	// Passes is the number of peeled layers.
	Passes int
}

// Target owns the color layers, the two ping-ponged depth buffers and the
// final composite of one Scene.
type Target interface {
	// Render runs all peeling passes over the frame, composites the layers
	// back to front over the background, resolves samples and writes the
	// result into dst. It blocks until the device has finished.
	Render(f *Frame, dst *Image) error

	// Destroy releases the targets.
	Destroy()
}

// Frame is the device-independent description of one Render call.
type Frame struct {
	Background RGBA
	Batches    []*Batch
}

// Vertex is a triangle-list vertex after the model-view-projection
// transform. World and Normal feed the lighting model.
type Vertex struct {
	Clip   mgl32.Vec4
	Color  mgl32.Vec4
	World  mgl32.Vec3
	Normal mgl32.Vec3
}

// Resource is a device-side copy of a batch.
type Resource interface {
	Release()
}

// Batch is a triangle list with one material. Devices cache uploaded copies
// per batch and refresh them when the generation changes.
type Batch struct {
	Vertices []Vertex
	Material Material

	mu  sync.Mutex
	gen uint64
	res map[Device]Resource
}

// Generation increases whenever Vertices or Material change.
func (b *Batch) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

func (b *Batch) touch() {
	b.mu.Lock()
	b.gen++
	b.mu.Unlock()
}

// Resource returns the cached device copy of the batch, or nil.
func (b *Batch) Resource(d Device) Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.res[d]
}

// SetResource caches a device copy. A previous copy for the same device is
// released.
func (b *Batch) SetResource(d Device, r Resource) {
	b.mu.Lock()
	old := b.res[d]
	if b.res == nil {
		b.res = make(map[Device]Resource)
	}
	if r == nil {
		delete(b.res, d)
	} else {
		b.res[d] = r
	}
	b.mu.Unlock()
	if old != nil && old != r {
		old.Release()
	}
}

// Release frees all device copies.
func (b *Batch) Release() {
	b.mu.Lock()
	res := b.res
	b.res = nil
	b.mu.Unlock()
	for _, r := range res {
		r.Release()
	}
}
