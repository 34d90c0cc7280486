package elviz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DiskSegments is the number of fan triangles approximating a disk.
const DiskSegments = 64

// Disk draws a flat-colored unit disk in the model's xy plane. Use the
// model matrix to place and scale it; with an identity view it faces the
// camera.
type Disk struct {
	drawableBase
	color RGBA
}

// NewDisk creates a disk of the given color.
func NewDisk(c RGBA) *Disk {
	d := &Disk{drawableBase: newDrawableBase(), color: c}
	d.drawableBase.build = d.build
	return d
}

// Color returns the fill color.
func (d *Disk) Color() RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.color
}

// SetColor sets the fill color.
func (d *Disk) SetColor(c RGBA) {
	d.update(func() { d.color = c })
}

// unitCircle holds the rim of the unit disk, closed (first == last).
var unitCircle = func() [DiskSegments + 1]mgl32.Vec3 {
	var rim [DiskSegments + 1]mgl32.Vec3
	for i := range rim {
		phi := 2 * math.Pi * float64(i%DiskSegments) / DiskSegments
		rim[i] = mgl32.Vec3{float32(math.Cos(phi)), float32(math.Sin(phi)), 0}
	}
	return rim
}()

func (d *Disk) build(vp viewport, xf Transform) ([]Vertex, Material) {
	mvp := xf.MVP(vp.width, vp.height)
	color := d.color.Vec4()
	center := Vertex{Clip: clipVertex(mvp, mgl32.Vec3{}), Color: color}
	verts := make([]Vertex, 0, 3*DiskSegments)
	for i := 0; i < DiskSegments; i++ {
		verts = append(verts,
			center,
			Vertex{Clip: clipVertex(mvp, unitCircle[i]), Color: color},
			Vertex{Clip: clipVertex(mvp, unitCircle[i+1]), Color: color},
		)
	}
	return verts, Material{}
}
