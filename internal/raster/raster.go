// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package raster scan-converts clip-space triangles into per-sample
// fragments for the software peeling device.
//
// Triangles are clipped against the near plane, projected to window
// coordinates (row 0 at the top), and tested at each pixel's sample
// positions with a top-left fill rule. Every covered sample is reported with
// its window-space depth in [0, 1] and perspective-correct barycentric
// weights relative to the original, unclipped triangle.
package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Fragment is one covered sample.
type Fragment struct {
	X, Y   int
	Sample int
	// Depth is the window-space depth, 0 at the near plane and 1 at the far plane.
	Depth float32
	// Bary weights the attributes of the three input vertices.
	Bary [3]float32
}

// Rasterizer converts triangles for a fixed target size and sample pattern.
type Rasterizer struct {
	width   int
	height  int
	samples []mgl32.Vec2
	frag    Fragment
}

// NewRasterizer creates a rasterizer for the given dimensions and sample
// count. Unsupported sample counts fall back to one sample.
func NewRasterizer(width, height, samples int) *Rasterizer {
	pattern, ok := SamplePattern(samples)
	if !ok {
		pattern, _ = SamplePattern(1)
	}
	return &Rasterizer{width: width, height: height, samples: pattern}
}

// Width returns the target width in pixels.
func (r *Rasterizer) Width() int { return r.width }

// Height returns the target height in pixels.
func (r *Rasterizer) Height() int { return r.height }

// Samples returns the number of samples per pixel.
func (r *Rasterizer) Samples() int { return len(r.samples) }

// clipVertex is a vertex produced by near-plane clipping, remembered as a
// weighting of the original triangle's vertices.
type clipVertex struct {
	pos    [4]float64
	weight [3]float64
}

// Triangle rasterizes the clip-space triangle (c0, c1, c2), calling emit
// for every covered sample. The Fragment passed to emit is reused.
func (r *Rasterizer) Triangle(c0, c1, c2 mgl32.Vec4, emit func(*Fragment)) {
	poly := []clipVertex{
		{pos: widen(c0), weight: [3]float64{1, 0, 0}},
		{pos: widen(c1), weight: [3]float64{0, 1, 0}},
		{pos: widen(c2), weight: [3]float64{0, 0, 1}},
	}
	poly = clipNear(poly)
	if len(poly) < 3 {
		return
	}
	for i := 1; i+1 < len(poly); i++ {
		r.rasterize(poly[0], poly[i], poly[i+1], emit)
	}
}

func widen(v mgl32.Vec4) [4]float64 {
	return [4]float64{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}
}

// minW keeps clipped vertices strictly in front of the eye.
const minW = 1e-6

// clipNear clips a convex polygon against z >= -w and w >= minW.
func clipNear(in []clipVertex) []clipVertex {
	planes := []func(p [4]float64) float64{
		func(p [4]float64) float64 { return p[2] + p[3] },
		func(p [4]float64) float64 { return p[3] - minW },
	}
	for _, dist := range planes {
		if len(in) == 0 {
			return nil
		}
		out := make([]clipVertex, 0, len(in)+1)
		for i := range in {
			a, b := in[i], in[(i+1)%len(in)]
			da, db := dist(a.pos), dist(b.pos)
			if da >= 0 {
				out = append(out, a)
			}
			if (da >= 0) != (db >= 0) {
				t := da / (da - db)
				out = append(out, lerpClip(a, b, t))
			}
		}
		in = out
	}
	return in
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	var v clipVertex
	for i := range v.pos {
		v.pos[i] = a.pos[i] + t*(b.pos[i]-a.pos[i])
	}
	for i := range v.weight {
		v.weight[i] = a.weight[i] + t*(b.weight[i]-a.weight[i])
	}
	return v
}

// windowVertex is a projected vertex.
type windowVertex struct {
	x, y, z float64
	invW    float64
	weight  [3]float64
}

func (r *Rasterizer) project(v clipVertex) windowVertex {
	invW := 1 / v.pos[3]
	return windowVertex{
		x:      (v.pos[0]*invW + 1) * 0.5 * float64(r.width),
		y:      (1 - v.pos[1]*invW) * 0.5 * float64(r.height),
		z:      v.pos[2]*invW*0.5 + 0.5,
		invW:   invW,
		weight: v.weight,
	}
}

// edge is the signed area term of p against the directed edge a->b.
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns implements the tie rule for samples exactly on an edge: of the two
// triangles sharing an edge, exactly one sees it in this direction.
func owns(ax, ay, bx, by float64) bool {
	dx, dy := bx-ax, by-ay
	return dy > 0 || (dy == 0 && dx < 0)
}

func inside(e float64, ax, ay, bx, by float64) bool {
	return e > 0 || (e == 0 && owns(ax, ay, bx, by))
}

func (r *Rasterizer) rasterize(a, b, c clipVertex, emit func(*Fragment)) {
	v0, v1, v2 := r.project(a), r.project(b), r.project(c)
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := int(math.Floor(math.Min(v0.x, math.Min(v1.x, v2.x))))
	maxX := int(math.Ceil(math.Max(v0.x, math.Max(v1.x, v2.x))))
	minY := int(math.Floor(math.Min(v0.y, math.Min(v1.y, v2.y))))
	maxY := int(math.Ceil(math.Max(v0.y, math.Max(v1.y, v2.y))))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, r.width-1), min(maxY, r.height-1)

	f := &r.frag
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			for s, off := range r.samples {
				px := float64(x) + float64(off[0])
				py := float64(y) + float64(off[1])

				e0 := edge(v1.x, v1.y, v2.x, v2.y, px, py)
				if !inside(e0, v1.x, v1.y, v2.x, v2.y) {
					continue
				}
				e1 := edge(v2.x, v2.y, v0.x, v0.y, px, py)
				if !inside(e1, v2.x, v2.y, v0.x, v0.y) {
					continue
				}
				e2 := edge(v0.x, v0.y, v1.x, v1.y, px, py)
				if !inside(e2, v0.x, v0.y, v1.x, v1.y) {
					continue
				}

				l0, l1, l2 := e0/area, e1/area, e2/area
				depth := l0*v0.z + l1*v1.z + l2*v2.z
				if depth < 0 || depth > 1 {
					continue
				}

				q0, q1, q2 := l0*v0.invW, l1*v1.invW, l2*v2.invW
				sum := q0 + q1 + q2
				if sum <= 0 {
					continue
				}
				q0, q1, q2 = q0/sum, q1/sum, q2/sum

				for i := 0; i < 3; i++ {
					f.Bary[i] = float32(q0*v0.weight[i] + q1*v1.weight[i] + q2*v2.weight[i])
				}
				f.X, f.Y, f.Sample = x, y, s
				f.Depth = float32(depth)
				emit(f)
			}
		}
	}
}
