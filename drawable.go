package elviz

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Drawable is a primitive that can be added to a Scene: a SegmentSet,
// PolylineSet, Surface or Disk.
//
// Drawables own their device buffers. A drawable may be shared by several
// scenes; its buffers are released once it is closed and no scene holds it
// any more.
type Drawable interface {
	// Transform returns the current model/view/projection triple.
	Transform() Transform
	// SetTransform replaces the model/view/projection triple.
	SetTransform(Transform)
	SetModel(mgl32.Mat4)
	SetView(mgl32.Mat4)
	SetProjection(mgl32.Mat4)
	SetAspectCorrection(bool)

	// Close makes the drawable inert and schedules its buffers for release.
	Close()

	base() *drawableBase
}

type viewport struct{ width, height int }

type cachedBatch struct {
	batch   *Batch
	version uint64
}

// drawableBase carries the state shared by all drawables. Concrete types
// embed it and install a build function that regenerates the triangle
// list for a viewport; build runs with mu held.
type drawableBase struct {
	mu      sync.Mutex
	xf      Transform
	refs    int
	closed  bool
	version uint64
	cache   map[viewport]*cachedBatch

	build func(vp viewport, xf Transform) ([]Vertex, Material)
}

func newDrawableBase() drawableBase {
	return drawableBase{xf: DefaultTransform()}
}

func (d *drawableBase) base() *drawableBase { return d }

// Transform returns the current model/view/projection triple.
func (d *drawableBase) Transform() Transform {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.xf
}

// SetTransform replaces the model/view/projection triple.
func (d *drawableBase) SetTransform(t Transform) {
	d.update(func() { d.xf = t })
}

// SetModel sets the model matrix.
func (d *drawableBase) SetModel(m mgl32.Mat4) {
	d.update(func() { d.xf.Model = m })
}

// SetView sets the view matrix.
func (d *drawableBase) SetView(m mgl32.Mat4) {
	d.update(func() { d.xf.View = m })
}

// SetProjection sets the projection matrix.
func (d *drawableBase) SetProjection(m mgl32.Mat4) {
	d.update(func() { d.xf.Projection = m })
}

// SetAspectCorrection turns the viewport aspect correction on or off.
func (d *drawableBase) SetAspectCorrection(on bool) {
	d.update(func() { d.xf.AspectCorrection = on })
}

// update applies fn under the lock and invalidates cached batches.
func (d *drawableBase) update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	fn()
	d.version++
}

// Close makes the drawable inert. Its buffers are released now if no
// scene holds it, otherwise when the last scene drops it.
func (d *drawableBase) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	free := d.refs == 0
	d.mu.Unlock()
	if free {
		d.releaseBatches()
	}
}

func (d *drawableBase) acquire() {
	d.mu.Lock()
	d.refs++
	d.mu.Unlock()
}

func (d *drawableBase) release() {
	d.mu.Lock()
	if d.refs > 0 {
		d.refs--
	}
	free := d.refs == 0 && d.closed
	d.mu.Unlock()
	if free {
		d.releaseBatches()
	}
}

func (d *drawableBase) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *drawableBase) releaseBatches() {
	d.mu.Lock()
	cache := d.cache
	d.cache = nil
	d.mu.Unlock()
	for _, c := range cache {
		c.batch.Release()
	}
}

// batch returns the triangle list for a width x height target, rebuilding
// it when the drawable changed since the last call. Closed drawables and
// drawables without geometry return nil.
func (d *drawableBase) batch(width, height int) *Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.build == nil {
		return nil
	}
	vp := viewport{width, height}
	c, ok := d.cache[vp]
	if !ok {
		if d.cache == nil {
			d.cache = make(map[viewport]*cachedBatch)
		}
		c = &cachedBatch{batch: &Batch{}, version: d.version - 1}
		d.cache[vp] = c
	}
	if c.version != d.version {
		c.batch.Vertices, c.batch.Material = d.build(vp, d.xf)
		c.batch.touch()
		c.version = d.version
	}
	if len(c.batch.Vertices) == 0 {
		return nil
	}
	return c.batch
}

// clipVertex transforms a model-space position.
func clipVertex(mvp mgl32.Mat4, p mgl32.Vec3) mgl32.Vec4 {
	return mvp.Mul4x1(p.Vec4(1))
}
