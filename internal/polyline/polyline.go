// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package polyline expands wide lines into triangles.
//
// Continuous polylines are first turned into an adjacency stream: every
// segment (P[i], P[i+1]) is listed with its neighbors P[i-1] and P[i+2], and
// missing neighbors at the two free ends are sentinel entries with NaN
// coordinates. Expand then emits miter joins between segments and butt or
// round caps at free ends. Independent segments are expanded by Segments.
//
// All inputs are clip-space positions. Widths are measured in pixels, so the
// expansion happens in scene space (pixels after the perspective divide)
// and the results are mapped back to clip space with the endpoint's w.
package polyline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cap selects the geometry emitted at a free end.
type Cap uint8

const (
	// Butt ends the line flush with the end point.
	Butt Cap = iota
	// Round ends the line with a half disk.
	Round
)

// CapSides is the number of wedges in a round cap.
const CapSides = 10

// Viewport is the pixel size of the target the lines are drawn into.
type Viewport struct {
	Width, Height float32
}

// Adjacent is one entry of an adjacency stream. Index is the position of the
// source point in the input, or -1 for a sentinel.
type Adjacent struct {
	Clip  mgl32.Vec4
	Index int
}

// Absent reports whether the entry marks a free end.
func (a Adjacent) Absent() bool {
	return math.IsNaN(float64(a.Clip[0]))
}

// Vertex is an expanded vertex. Index names the input point whose
// attributes (color) the vertex takes.
type Vertex struct {
	Clip  mgl32.Vec4
	Index int
}

// absent is the sentinel for a missing neighbor.
func absent() Adjacent {
	nan := float32(math.NaN())
	return Adjacent{Clip: mgl32.Vec4{nan, nan, nan, nan}, Index: -1}
}

// Stream builds the adjacency stream of a polyline: four entries per
// segment. Fewer than two points give an empty stream.
func Stream(points []mgl32.Vec4) []Adjacent {
	if len(points) < 2 {
		return nil
	}
	at := func(i int) Adjacent {
		if i < 0 || i >= len(points) {
			return absent()
		}
		return Adjacent{Clip: points[i], Index: i}
	}
	out := make([]Adjacent, 0, 4*(len(points)-1))
	for i := 0; i+1 < len(points); i++ {
		out = append(out, at(i-1), at(i), at(i+1), at(i+2))
	}
	return out
}

// Expand turns an adjacency stream into a triangle list.
// Segments whose end points are behind the eye or coincide in screen
// space produce no geometry.
func Expand(stream []Adjacent, width float32, c Cap, vp Viewport) []Vertex {
	if width <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	h := 0.5 * float64(width)
	var e emitter
	for i := 0; i+3 < len(stream); i += 4 {
		a, b, cc, d := stream[i], stream[i+1], stream[i+2], stream[i+3]
		if !drawable(b) || !drawable(cc) {
			continue
		}
		p1, p2 := vp.toScene(b.Clip), vp.toScene(cc.Clip)
		if p2.sub(p1).xy.Length() == 0 {
			continue
		}
		v1 := func(d delta) Vertex { return Vertex{Clip: vp.fromScene(p1.add(d)), Index: b.Index} }
		v2 := func(d delta) Vertex { return Vertex{Clip: vp.fromScene(p2.add(d)), Index: cc.Index} }

		startJoined := drawable(a) && vp.toScene(a.Clip).sub(p1).xy.Length() != 0
		endJoined := drawable(d) && vp.toScene(d.Clip).sub(p2).xy.Length() != 0

		if startJoined {
			t := calculateTip(vp.toScene(a.Clip), p1, p2, h)
			e.triangle(v1(t.miter), v1(delta{}), v1(t.outer))
			e.strip(v1(delta{}))
			e.strip(v1(t.left))
			e.strip(v1(t.right))
		} else {
			n := scale(perp(p2.sub(p1)).unit2(), h)
			e.strip(v1(n))
			e.strip(v1(n.neg()))
			if c == Round {
				capFan(&e, p1, p2, h, v1)
			}
		}

		if endJoined {
			t := calculateTip(vp.toScene(d.Clip), p2, p1, h)
			e.strip(v2(t.right))
			e.strip(v2(t.left))
			e.strip(v2(delta{}))
			e.endStrip()
			e.triangle(v2(t.miter), v2(delta{}), v2(t.outer))
		} else {
			n := scale(perp(p2.sub(p1)).unit2(), h)
			e.strip(v2(n))
			e.strip(v2(n.neg()))
			e.endStrip()
			if c == Round {
				capFan(&e, p2, p1, h, v2)
			}
		}
	}
	return e.out
}

// Segments expands independent segments. ends holds two entries per
// segment (start, end) and widths one width per segment.
func Segments(ends []Adjacent, widths []float32, c Cap, vp Viewport) []Vertex {
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	var e emitter
	for i := 0; i+1 < len(ends) && i/2 < len(widths); i += 2 {
		s, t := ends[i], ends[i+1]
		width := widths[i/2]
		if width <= 0 || !drawable(s) || !drawable(t) {
			continue
		}
		p0, p1 := vp.toScene(s.Clip), vp.toScene(t.Clip)
		if p1.sub(p0).xy.Length() == 0 {
			continue
		}
		h := 0.5 * float64(width)
		n := scale(perp(p1.sub(p0)).unit2(), h)
		v0 := func(d delta) Vertex { return Vertex{Clip: vp.fromScene(p0.add(d)), Index: s.Index} }
		v1 := func(d delta) Vertex { return Vertex{Clip: vp.fromScene(p1.add(d)), Index: t.Index} }

		e.strip(v0(n.neg()))
		e.strip(v0(n))
		e.strip(v1(n.neg()))
		e.strip(v1(n))
		e.endStrip()

		if c == Round {
			capFan(&e, p0, p1, h, v0)
			capFan(&e, p1, p0, h, v1)
		}
	}
	return e.out
}

// capFan emits a half disk of radius h at end, bulging away from other.
func capFan(e *emitter, end, other scenePoint, h float64, at func(delta) Vertex) {
	n := perp(other.sub(end)).unit2()
	side := perp(n)
	step := math.Pi / CapSides
	corner := func(phi float64) delta {
		return scale(n, h*math.Cos(phi)).plus(scale(side, h*math.Sin(phi)))
	}
	for i := 0; i < CapSides; i++ {
		e.triangle(at(delta{}), at(corner(float64(i)*step)), at(corner(float64(i+1)*step)))
	}
}

// drawable reports whether an entry can be projected to the screen.
func drawable(a Adjacent) bool {
	if a.Absent() {
		return false
	}
	w := float64(a.Clip[3])
	return w > 0 && !math.IsInf(w, 0)
}

// emitter collects triangles, converting triangle strips to lists.
type emitter struct {
	out   []Vertex
	queue []Vertex
}

func (e *emitter) triangle(a, b, c Vertex) {
	e.out = append(e.out, a, b, c)
}

func (e *emitter) strip(v Vertex) {
	e.queue = append(e.queue, v)
	if n := len(e.queue); n >= 3 {
		e.triangle(e.queue[n-3], e.queue[n-2], e.queue[n-1])
	}
}

func (e *emitter) endStrip() {
	e.queue = e.queue[:0]
}
