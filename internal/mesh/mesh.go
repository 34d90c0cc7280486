// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mesh turns a u/v grid of points into a triangle mesh with
// per-vertex (smooth) or per-triangle (flat) normals.
//
// The mesh is stored as an arena of vertex slots. In smooth mode there is one
// slot per grid point; in flat mode every quad owns six slots, three for its
// upper triangle (u,v),(u,v+1),(u+1,v) and three for its lower triangle
// (u+1,v+1),(u,v+1),(u+1,v). Single-point updates rewrite only the slots and
// normals that touch the point.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mode selects the normal layout.
type Mode uint8

const (
	// Smooth shares one vertex per grid point.
	Smooth Mode = iota
	// Flat gives each triangle three vertices of its own.
	Flat
)

// FloatsPerVertex is the interleaved slot size: position 3, color 4, normal 3.
const FloatsPerVertex = 3 + 4 + 3

const (
	offsetPosition = 0
	offsetColor    = 3
	offsetNormal   = 7
)

// Mesh is the arena-backed triangle mesh built from a grid.
type Mesh struct {
	uSize, vSize int
	mode         Mode

	// positions mirrors the grid so neighbor lookups don't depend on the slot layout.
	positions []mgl32.Vec3
	data      []float32
}

// Valid reports whether a grid of n points with rows of uSize forms at least one quad.
func Valid(n, uSize int) bool {
	return uSize >= 2 && n%uSize == 0 && n/uSize >= 2
}

// Build creates a mesh from row-major grid positions and colors.
// colors must have the same length as positions. Degenerate grids
// produce an empty mesh.
func Build(positions []mgl32.Vec3, colors []mgl32.Vec4, uSize int, mode Mode) *Mesh {
	m := &Mesh{mode: mode}
	if !Valid(len(positions), uSize) || len(colors) != len(positions) {
		return m
	}
	m.uSize = uSize
	m.vSize = len(positions) / uSize
	m.positions = append([]mgl32.Vec3(nil), positions...)
	m.data = make([]float32, m.slotCount()*FloatsPerVertex)

	for v := 0; v < m.vSize; v++ {
		for u := 0; u < m.uSize; u++ {
			i := v*m.uSize + u
			m.forSlots(u, v, func(slot int) {
				m.write(slot, offsetPosition, positions[i][:])
				m.write(slot, offsetColor, colors[i][:])
			})
		}
	}
	m.updateAllNormals()
	return m
}

// Mode returns the normal layout.
func (m *Mesh) Mode() Mode { return m.mode }

// USize returns the number of grid points per row.
func (m *Mesh) USize() int { return m.uSize }

// VSize returns the number of grid rows.
func (m *Mesh) VSize() int { return m.vSize }

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool { return len(m.data) == 0 }

// VertexCount returns the number of vertex slots:
// uSize*vSize in smooth mode, 6*(uSize-1)*(vSize-1) in flat mode.
func (m *Mesh) VertexCount() int { return len(m.data) / FloatsPerVertex }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return 2 * m.quadCount() }

// Data returns the interleaved slot arena. The slice is owned by the mesh.
func (m *Mesh) Data() []float32 { return m.data }

// Vertex returns the attributes stored in slot i.
func (m *Mesh) Vertex(i int) (position mgl32.Vec3, color mgl32.Vec4, normal mgl32.Vec3) {
	o := i * FloatsPerVertex
	copy(position[:], m.data[o+offsetPosition:])
	copy(color[:], m.data[o+offsetColor:])
	copy(normal[:], m.data[o+offsetNormal:])
	return position, color, normal
}

// Position returns the position of grid point (u, v).
func (m *Mesh) Position(u, v int) mgl32.Vec3 {
	if !m.inRange(u, v) {
		return mgl32.Vec3{}
	}
	return m.positions[v*m.uSize+u]
}

// Color returns the color of grid point (u, v).
func (m *Mesh) Color(u, v int) mgl32.Vec4 {
	var c mgl32.Vec4
	if !m.inRange(u, v) {
		return c
	}
	m.forSlots(u, v, func(slot int) {
		copy(c[:], m.data[slot*FloatsPerVertex+offsetColor:])
	})
	return c
}

// Triangles calls fn with the slot indices of every triangle, upper
// triangle of each quad first.
func (m *Mesh) Triangles(fn func(i0, i1, i2 int)) {
	for v := 0; v+1 < m.vSize; v++ {
		for u := 0; u+1 < m.uSize; u++ {
			if m.mode == Flat {
				base := 6 * (v*(m.uSize-1) + u)
				fn(base, base+1, base+2)
				fn(base+3, base+4, base+5)
				continue
			}
			fn(m.index(u, v), m.index(u, v+1), m.index(u+1, v))
			fn(m.index(u+1, v+1), m.index(u, v+1), m.index(u+1, v))
		}
	}
}

// SetPosition moves grid point (u, v) and recomputes only the normals
// that depend on it. Out-of-range indices are ignored.
func (m *Mesh) SetPosition(u, v int, p mgl32.Vec3) {
	if !m.inRange(u, v) {
		return
	}
	m.positions[v*m.uSize+u] = p
	m.forSlots(u, v, func(slot int) {
		m.write(slot, offsetPosition, p[:])
	})

	if m.mode == Flat {
		m.forTriangles(u, v, m.updateFaceNormal)
		return
	}
	m.updatePointNormal(u, v)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		if m.inRange(u+d[0], v+d[1]) {
			m.updatePointNormal(u+d[0], v+d[1])
		}
	}
}

// SetColor recolors grid point (u, v). Out-of-range indices are ignored.
func (m *Mesh) SetColor(u, v int, c mgl32.Vec4) {
	if !m.inRange(u, v) {
		return
	}
	m.forSlots(u, v, func(slot int) {
		m.write(slot, offsetColor, c[:])
	})
}

func (m *Mesh) quadCount() int {
	if m.uSize < 2 || m.vSize < 2 {
		return 0
	}
	return (m.uSize - 1) * (m.vSize - 1)
}

func (m *Mesh) slotCount() int {
	if m.mode == Flat {
		return 6 * m.quadCount()
	}
	return m.uSize * m.vSize
}

func (m *Mesh) inRange(u, v int) bool {
	return u >= 0 && v >= 0 && u < m.uSize && v < m.vSize
}

func (m *Mesh) index(u, v int) int { return v*m.uSize + u }

// flatSlot returns the slot of a triangle corner in quad (u, v).
func (m *Mesh) flatSlot(u, v int, lower bool, corner int) int {
	tri := 2 * (v*(m.uSize-1) + u)
	if lower {
		tri++
	}
	return 3*tri + corner
}

// forSlots visits every slot that holds grid point (u, v).
func (m *Mesh) forSlots(u, v int, fn func(slot int)) {
	if m.mode != Flat {
		fn(m.index(u, v))
		return
	}
	hasLeft, hasRight := u > 0, u+1 < m.uSize
	hasDown, hasUp := v > 0, v+1 < m.vSize
	if hasRight && hasUp {
		fn(m.flatSlot(u, v, false, 0))
	}
	if hasRight && hasDown {
		fn(m.flatSlot(u, v-1, false, 1))
		fn(m.flatSlot(u, v-1, true, 1))
	}
	if hasLeft && hasUp {
		fn(m.flatSlot(u-1, v, false, 2))
		fn(m.flatSlot(u-1, v, true, 2))
	}
	if hasLeft && hasDown {
		fn(m.flatSlot(u-1, v-1, true, 0))
	}
}

// forTriangles visits every flat triangle that has (u, v) as a corner.
func (m *Mesh) forTriangles(u, v int, fn func(qu, qv int, lower bool)) {
	hasLeft, hasRight := u > 0, u+1 < m.uSize
	hasDown, hasUp := v > 0, v+1 < m.vSize
	if hasRight && hasUp {
		fn(u, v, false)
	}
	if hasRight && hasDown {
		fn(u, v-1, false)
		fn(u, v-1, true)
	}
	if hasLeft && hasUp {
		fn(u-1, v, false)
		fn(u-1, v, true)
	}
	if hasLeft && hasDown {
		fn(u-1, v-1, true)
	}
}

func (m *Mesh) updateAllNormals() {
	if m.mode == Flat {
		for v := 0; v+1 < m.vSize; v++ {
			for u := 0; u+1 < m.uSize; u++ {
				m.updateFaceNormal(u, v, false)
				m.updateFaceNormal(u, v, true)
			}
		}
		return
	}
	for v := 0; v < m.vSize; v++ {
		for u := 0; u < m.uSize; u++ {
			m.updatePointNormal(u, v)
		}
	}
}

// updatePointNormal sets the smooth normal of (u, v) to the normalized sum
// of the unit normals of the adjacent quads.
func (m *Mesh) updatePointNormal(u, v int) {
	p := m.Position(u, v)
	var n mgl32.Vec3
	if u > 0 && v > 0 {
		n = n.Add(unit(p.Sub(m.Position(u-1, v)).Cross(m.Position(u, v-1).Sub(p))))
	}
	if u+1 < m.uSize && v > 0 {
		n = n.Add(unit(p.Sub(m.Position(u, v-1)).Cross(m.Position(u+1, v).Sub(p))))
	}
	if u+1 < m.uSize && v+1 < m.vSize {
		n = n.Add(unit(p.Sub(m.Position(u+1, v)).Cross(m.Position(u, v+1).Sub(p))))
	}
	if u > 0 && v+1 < m.vSize {
		n = n.Add(unit(p.Sub(m.Position(u, v+1)).Cross(m.Position(u-1, v).Sub(p))))
	}
	n = unit(n)
	m.write(m.index(u, v), offsetNormal, n[:])
}

// updateFaceNormal recomputes the normal of one flat triangle of quad (u, v).
// Both triangles of a planar quad get the same orientation.
func (m *Mesh) updateFaceNormal(u, v int, lower bool) {
	var n mgl32.Vec3
	if lower {
		p := m.Position(u+1, v+1)
		n = p.Sub(m.Position(u, v+1)).Cross(m.Position(u+1, v).Sub(p))
	} else {
		p := m.Position(u, v)
		n = p.Sub(m.Position(u+1, v)).Cross(m.Position(u, v+1).Sub(p))
	}
	n = unit(n)
	for corner := 0; corner < 3; corner++ {
		m.write(m.flatSlot(u, v, lower, corner), offsetNormal, n[:])
	}
}

func (m *Mesh) write(slot, offset int, values []float32) {
	copy(m.data[slot*FloatsPerVertex+offset:], values)
}

// unit normalizes v, mapping degenerate vectors to zero.
func unit(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
