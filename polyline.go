package elviz

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/elviz/internal/polyline"
)

// PolylineSet draws continuous wide polylines with mitered joins. All lines
// of a set share one width and cap style; colors are per point.
//
// A line with fewer than two points draws nothing.
type PolylineSet struct {
	drawableBase
	lines   [][]Point
	width   float32
	lineCap LineCap
}

// NewPolyline creates a set holding a single polyline.
func NewPolyline(points []Point, width float32, c LineCap) *PolylineSet {
	return NewPolylineSet(width, c, points)
}

// NewPolylineSet creates a set of polylines.
func NewPolylineSet(width float32, c LineCap, lines ...[]Point) *PolylineSet {
	p := &PolylineSet{drawableBase: newDrawableBase(), width: width, lineCap: c}
	p.lines = cloneLines(lines)
	p.drawableBase.build = p.build
	return p
}

func cloneLines(lines [][]Point) [][]Point {
	out := make([][]Point, len(lines))
	for i, l := range lines {
		out[i] = slices.Clone(l)
	}
	return out
}

// Lines returns a copy of the polylines.
func (p *PolylineSet) Lines() [][]Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneLines(p.lines)
}

// SetPoints replaces all lines with a single polyline.
func (p *PolylineSet) SetPoints(points []Point) {
	p.update(func() { p.lines = [][]Point{slices.Clone(points)} })
}

// SetLines replaces all lines.
func (p *PolylineSet) SetLines(lines ...[]Point) {
	p.update(func() { p.lines = cloneLines(lines) })
}

// Width returns the line width in pixels.
func (p *PolylineSet) Width() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width
}

// SetWidth sets the line width in pixels.
func (p *PolylineSet) SetWidth(width float32) {
	p.update(func() { p.width = width })
}

// Cap returns the cap style.
func (p *PolylineSet) Cap() LineCap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lineCap
}

// SetCap sets the cap style of the free ends.
func (p *PolylineSet) SetCap(c LineCap) {
	p.update(func() { p.lineCap = c })
}

func (p *PolylineSet) build(vp viewport, xf Transform) ([]Vertex, Material) {
	mvp := xf.MVP(vp.width, vp.height)
	var verts []Vertex
	for _, line := range p.lines {
		if len(line) < 2 {
			continue
		}
		clip := make([]mgl32.Vec4, len(line))
		for i, pt := range line {
			clip[i] = clipVertex(mvp, pt.Position)
		}
		out := polyline.Expand(polyline.Stream(clip), p.width, lineCap(p.lineCap), polylineViewport(vp))
		for _, v := range out {
			verts = append(verts, Vertex{Clip: v.Clip, Color: line[v.Index].Color.Vec4()})
		}
	}
	return verts, Material{}
}
