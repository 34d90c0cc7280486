//go:build !nogpu

// Package gpu implements the elviz depth-peeling device on wgpu/hal.
//
// A target owns P color layers, two ping-ponged depth textures and a
// single-sample composite texture:
//
//	pass 0..P-1: draw all batches into layer k, depth LESS against depth[k%2],
//	             discarding fragments at or in front of depth[(k+1)%2]
//	composite:   blend layers P-1..0 over the background per sample,
//	             average the samples, read back as RGBA32Float
//
// Shaders are WGSL templates compiled to SPIR-V with naga. Devices are opened
// on the Vulkan backend or wrap a device shared by the host application.
package gpu
