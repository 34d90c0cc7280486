// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package raster

import "github.com/go-gl/mathgl/mgl32"

// Standard multisample positions within a pixel, origin at the top-left
// corner. These match the Vulkan and Direct3D standard sample locations.
var samplePatterns = map[int][]mgl32.Vec2{
	1: {{0.5, 0.5}},
	2: {{0.75, 0.75}, {0.25, 0.25}},
	4: {{0.375, 0.125}, {0.875, 0.375}, {0.125, 0.625}, {0.625, 0.875}},
	8: {
		{0.5625, 0.3125}, {0.4375, 0.6875}, {0.8125, 0.5625}, {0.3125, 0.1875},
		{0.1875, 0.8125}, {0.0625, 0.4375}, {0.6875, 0.9375}, {0.9375, 0.0625},
	},
}

// SamplePattern returns the sample positions for n samples per pixel.
func SamplePattern(n int) ([]mgl32.Vec2, bool) {
	p, ok := samplePatterns[n]
	return p, ok
}

// SupportedSamples reports whether n samples per pixel can be rasterized.
func SupportedSamples(n int) bool {
	_, ok := samplePatterns[n]
	return ok
}
