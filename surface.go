package elviz

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/elviz/internal/mesh"
)

// Surface draws a triangulated u/v grid, lit with a Phong model by default.
//
// Single-point edits through SetPosition, SetColor and SetPoint update only
// the mesh vertices and normals touching that point.
type Surface struct {
	drawableBase
	grid SurfaceGrid
	mesh *mesh.Mesh

	lit      bool
	light    mgl32.Vec3
	hasLight bool
}

// NewSurface creates a lit surface from grid. A degenerate grid gives an
// empty surface; an unknown shading mode is an error.
func NewSurface(grid SurfaceGrid) (*Surface, error) {
	if !grid.Mode.valid() {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidGrid, grid.Mode)
	}
	s := &Surface{drawableBase: newDrawableBase(), lit: true}
	s.setGrid(grid)
	s.drawableBase.build = s.build
	return s, nil
}

func (s *Surface) setGrid(grid SurfaceGrid) {
	s.grid = SurfaceGrid{Points: append([]Point(nil), grid.Points...), USize: grid.USize, Mode: grid.Mode}
	positions := make([]mgl32.Vec3, len(grid.Points))
	colors := make([]mgl32.Vec4, len(grid.Points))
	for i, p := range grid.Points {
		positions[i] = p.Position
		colors[i] = p.Color.Vec4()
	}
	s.mesh = mesh.Build(positions, colors, grid.USize, meshMode(grid.Mode))
}

func meshMode(m SurfaceMode) mesh.Mode {
	if m == SurfaceFlat {
		return mesh.Flat
	}
	return mesh.Smooth
}

// Grid returns a copy of the grid.
func (s *Surface) Grid() SurfaceGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SurfaceGrid{Points: append([]Point(nil), s.grid.Points...), USize: s.grid.USize, Mode: s.grid.Mode}
}

// SetGrid replaces the whole grid. A grid with an unknown mode is ignored.
func (s *Surface) SetGrid(grid SurfaceGrid) {
	if !grid.Mode.valid() {
		return
	}
	s.update(func() { s.setGrid(grid) })
}

// SetMode switches between smooth and flat shading, rebuilding the mesh.
// Unknown modes are ignored.
func (s *Surface) SetMode(m SurfaceMode) {
	if !m.valid() {
		return
	}
	s.update(func() {
		g := s.grid
		g.Mode = m
		s.setGrid(g)
	})
}

// SetPosition moves grid point (u, v). Out-of-range indices are ignored.
func (s *Surface) SetPosition(u, v int, p mgl32.Vec3) {
	s.update(func() {
		if !s.grid.inRange(u, v) {
			return
		}
		s.grid.Points[v*s.grid.USize+u].Position = p
		s.mesh.SetPosition(u, v, p)
	})
}

// SetColor recolors grid point (u, v). Out-of-range indices are ignored.
func (s *Surface) SetColor(u, v int, c RGBA) {
	s.update(func() {
		if !s.grid.inRange(u, v) {
			return
		}
		s.grid.Points[v*s.grid.USize+u].Color = c
		s.mesh.SetColor(u, v, c.Vec4())
	})
}

// SetPoint replaces grid point (u, v). Out-of-range indices are ignored.
func (s *Surface) SetPoint(u, v int, p Point) {
	s.update(func() {
		if !s.grid.inRange(u, v) {
			return
		}
		s.grid.Points[v*s.grid.USize+u] = p
		s.mesh.SetPosition(u, v, p.Position)
		s.mesh.SetColor(u, v, p.Color.Vec4())
	})
}

// SetLighting turns Phong lighting on or off. Unlit surfaces show their
// vertex colors.
func (s *Surface) SetLighting(on bool) {
	s.update(func() { s.lit = on })
}

// SetLight places the light at a world-space position.
func (s *Surface) SetLight(pos mgl32.Vec3) {
	s.update(func() {
		s.light = pos
		s.hasLight = true
	})
}

// ResetLight moves the light back to the camera position.
func (s *Surface) ResetLight() {
	s.update(func() { s.hasLight = false })
}

func (s *Surface) build(vp viewport, xf Transform) ([]Vertex, Material) {
	if s.mesh.IsEmpty() {
		return nil, Material{}
	}
	mvp := xf.MVP(vp.width, vp.height)
	nm := xf.NormalMatrix()

	mat := Material{Lit: s.lit}
	if s.lit {
		mat.Eye = xf.Eye()
		mat.Light = mat.Eye
		if s.hasLight {
			mat.Light = s.light
		}
		mat.Ambient = DefaultAmbient
		mat.Diffuse = DefaultDiffuse
		mat.Specular = DefaultSpecular
		mat.Shininess = DefaultShininess
	}

	verts := make([]Vertex, 0, 3*s.mesh.TriangleCount())
	vertex := func(i int) Vertex {
		pos, color, normal := s.mesh.Vertex(i)
		return Vertex{
			Clip:   clipVertex(mvp, pos),
			Color:  color,
			World:  xf.Model.Mul4x1(pos.Vec4(1)).Vec3(),
			Normal: nm.Mul3x1(normal),
		}
	}
	s.mesh.Triangles(func(i0, i1, i2 int) {
		verts = append(verts, vertex(i0), vertex(i1), vertex(i2))
	})
	return verts, mat
}
