// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type sampleKey struct{ x, y, s int }

func fullscreen(r *Rasterizer, z float32, emit func(*Fragment)) {
	r.Triangle(mgl32.Vec4{-1, -1, z, 1}, mgl32.Vec4{1, -1, z, 1}, mgl32.Vec4{1, 1, z, 1}, emit)
	r.Triangle(mgl32.Vec4{-1, -1, z, 1}, mgl32.Vec4{1, 1, z, 1}, mgl32.Vec4{-1, 1, z, 1}, emit)
}

func TestSharedEdgeCoveredOnce(t *testing.T) {
	for _, samples := range []int{1, 2, 4, 8} {
		r := NewRasterizer(4, 4, samples)
		hits := map[sampleKey]int{}
		fullscreen(r, 0, func(f *Fragment) {
			hits[sampleKey{f.X, f.Y, f.Sample}]++
		})
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				for s := 0; s < samples; s++ {
					if n := hits[sampleKey{x, y, s}]; n != 1 {
						t.Errorf("samples=%d: (%d,%d,%d) covered %d times, want 1", samples, x, y, s, n)
					}
				}
			}
		}
	}
}

func TestSamplesFallback(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1}, {2, 2}, {4, 4}, {8, 8}, {0, 1}, {3, 1}, {16, 1},
	}
	for _, tt := range tests {
		if got := NewRasterizer(2, 2, tt.in).Samples(); got != tt.want {
			t.Errorf("NewRasterizer(samples=%d).Samples() = %d, want %d", tt.in, got, tt.want)
		}
	}
	if SupportedSamples(3) {
		t.Error("SupportedSamples(3) = true")
	}
}

func TestDepthMapping(t *testing.T) {
	tests := []struct {
		z         float32
		wantDepth float32
		wantHits  bool
	}{
		{0, 0.5, true},
		{0.5, 0.75, true},
		{-1, 0, true},
		{1, 1, true},
		{2, 0, false},
	}
	for _, tt := range tests {
		r := NewRasterizer(2, 2, 1)
		n := 0
		fullscreen(r, tt.z, func(f *Fragment) {
			n++
			if math.Abs(float64(f.Depth-tt.wantDepth)) > 1e-6 {
				t.Errorf("z=%v: depth = %v, want %v", tt.z, f.Depth, tt.wantDepth)
			}
		})
		if (n > 0) != tt.wantHits {
			t.Errorf("z=%v: %d fragments, want hits=%v", tt.z, n, tt.wantHits)
		}
	}
}

func TestTopRowIsPositiveY(t *testing.T) {
	r := NewRasterizer(4, 4, 1)
	// Upper half of the viewport in NDC.
	r.Triangle(mgl32.Vec4{-1, 0, 0, 1}, mgl32.Vec4{1, 0, 0, 1}, mgl32.Vec4{1, 1, 0, 1}, func(f *Fragment) {
		if f.Y >= 2 {
			t.Errorf("fragment at row %d, want rows 0 and 1", f.Y)
		}
	})
}

func TestDegenerateTriangle(t *testing.T) {
	r := NewRasterizer(8, 8, 4)
	n := 0
	r.Triangle(mgl32.Vec4{-1, -1, 0, 1}, mgl32.Vec4{0, 0, 0, 1}, mgl32.Vec4{1, 1, 0, 1}, func(*Fragment) { n++ })
	if n != 0 {
		t.Errorf("collinear triangle produced %d fragments", n)
	}
}

func TestPerspectiveCorrectBarycentrics(t *testing.T) {
	const size = 16
	c := [3]mgl32.Vec4{
		{-1.5, -1.5, 0.2, 2},
		{0.9, -0.9, 0.1, 1},
		{0, 3, 0.5, 3},
	}
	r := NewRasterizer(size, size, 4)
	pattern, _ := SamplePattern(4)
	n := 0
	r.Triangle(c[0], c[1], c[2], func(f *Fragment) {
		n++
		sum := f.Bary[0] + f.Bary[1] + f.Bary[2]
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Fatalf("barycentrics %v sum to %v", f.Bary, sum)
		}
		var p mgl32.Vec4
		for i := range c {
			p = p.Add(c[i].Mul(f.Bary[i]))
		}
		// The interpolated clip position projects onto the sample.
		sx := (float64(p[0]/p[3]) + 1) * 0.5 * size
		sy := (1 - float64(p[1]/p[3])) * 0.5 * size
		wantX := float64(f.X) + float64(pattern[f.Sample][0])
		wantY := float64(f.Y) + float64(pattern[f.Sample][1])
		if math.Abs(sx-wantX) > 1e-3 || math.Abs(sy-wantY) > 1e-3 {
			t.Fatalf("fragment (%d,%d,%d) projects to (%v,%v), want (%v,%v)", f.X, f.Y, f.Sample, sx, sy, wantX, wantY)
		}
	})
	if n == 0 {
		t.Fatal("no fragments emitted")
	}
}

func TestNearPlaneClipping(t *testing.T) {
	r := NewRasterizer(16, 16, 1)
	n := 0
	r.Triangle(
		mgl32.Vec4{-0.5, -0.5, 0, 1},
		mgl32.Vec4{0.5, -0.5, 0, 1},
		// In front of the eye but closer than the near plane: the edges
		// from A and B clip at y = 0.
		mgl32.Vec4{0, 0.5, -2, 1},
		func(f *Fragment) {
			n++
			if f.Depth < 0 || f.Depth > 1 {
				t.Fatalf("depth %v outside [0, 1]", f.Depth)
			}
			for _, b := range f.Bary {
				if math.IsNaN(float64(b)) || math.IsInf(float64(b), 0) {
					t.Fatalf("non-finite barycentrics %v", f.Bary)
				}
			}
		})
	if n == 0 {
		t.Error("clipped triangle produced no fragments")
	}

	n = 0
	behind := mgl32.Vec4{0, 0, -2, -1}
	r.Triangle(behind, behind.Add(mgl32.Vec4{1, 0, 0, 0}), behind.Add(mgl32.Vec4{0, 1, 0, 0}), func(*Fragment) { n++ })
	if n != 0 {
		t.Errorf("triangle behind the eye produced %d fragments", n)
	}
}
