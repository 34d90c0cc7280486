package elviz

import "github.com/go-gl/mathgl/mgl32"

// Point is a positioned, colored vertex. Colors use straight alpha.
type Point struct {
	Position mgl32.Vec3
	Color    RGBA
}

// Pt is shorthand for constructing a Point.
func Pt(x, y, z float32, c RGBA) Point {
	return Point{Position: mgl32.Vec3{x, y, z}, Color: c}
}

// Segment is an independent line segment. Segments never share vertices.
// Width is measured in pixels of the target scene.
type Segment struct {
	Start, End Point
	Width      float32
}

// LineCap selects the geometry emitted at a free line end.
type LineCap uint8

const (
	// LineCapButt ends the line flush with its end point.
	LineCapButt LineCap = iota
	// LineCapRound ends the line with a half disk of the line's width.
	LineCapRound
)

// String returns the cap name.
func (c LineCap) String() string {
	switch c {
	case LineCapButt:
		return "butt"
	case LineCapRound:
		return "round"
	default:
		return "unknown"
	}
}

// SurfaceMode selects how a SurfaceGrid is shaded.
type SurfaceMode uint8

const (
	// SurfaceSmooth shares one vertex per grid point with averaged normals.
	SurfaceSmooth SurfaceMode = iota
	// SurfaceFlat gives every triangle its own vertices and face normal.
	SurfaceFlat
)

func (m SurfaceMode) valid() bool {
	return m == SurfaceSmooth || m == SurfaceFlat
}

// String returns the mode name.
func (m SurfaceMode) String() string {
	if m == SurfaceFlat {
		return "flat"
	}
	return "smooth"
}

// SurfaceGrid is a u/v lattice of points stored row by row:
// the point (u, v) lives at Points[v*USize+u].
type SurfaceGrid struct {
	Points []Point
	USize  int
	Mode   SurfaceMode
}

// NewSurfaceGrid returns a grid of uSize*vSize points produced by f.
func NewSurfaceGrid(uSize, vSize int, mode SurfaceMode, f func(u, v int) Point) SurfaceGrid {
	g := SurfaceGrid{USize: uSize, Mode: mode}
	if uSize <= 0 || vSize <= 0 {
		return g
	}
	g.Points = make([]Point, 0, uSize*vSize)
	for v := 0; v < vSize; v++ {
		for u := 0; u < uSize; u++ {
			g.Points = append(g.Points, f(u, v))
		}
	}
	return g
}

// VSize returns the number of rows, or 0 if USize is not positive.
func (g SurfaceGrid) VSize() int {
	if g.USize <= 0 {
		return 0
	}
	return len(g.Points) / g.USize
}

// Valid reports whether the grid describes at least one quad.
func (g SurfaceGrid) Valid() bool {
	return g.USize >= 2 && len(g.Points)%g.USize == 0 && g.VSize() >= 2
}

// At returns the point at (u, v). Out-of-range indices return the zero Point.
func (g SurfaceGrid) At(u, v int) Point {
	if !g.inRange(u, v) {
		return Point{}
	}
	return g.Points[v*g.USize+u]
}

// Set replaces the point at (u, v). Out-of-range indices are ignored.
func (g SurfaceGrid) Set(u, v int, p Point) {
	if !g.inRange(u, v) {
		return
	}
	g.Points[v*g.USize+u] = p
}

func (g SurfaceGrid) inRange(u, v int) bool {
	return u >= 0 && v >= 0 && u < g.USize && v < g.VSize() && v*g.USize+u < len(g.Points)
}
