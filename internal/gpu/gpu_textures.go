//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// texture is a texture with its default view and its last known usage,
// used to emit layout transitions between passes.
type texture struct {
	tex   hal.Texture
	view  hal.TextureView
	usage gputypes.TextureUsage
}

// targetTextures holds the off-screen textures of one target:
//   - layers: P color layers, S samples, RGBA16Float, RenderAttachment | TextureBinding
//   - depth: 2 ping-ponged depth buffers, S samples, Depth32Float, RenderAttachment | TextureBinding
//   - output: 1 sample, RGBA32Float, RenderAttachment | CopySrc
type targetTextures struct {
	layers []texture
	depth  [2]texture
	output texture
}

func (ts *targetTextures) create(device hal.Device, w, h, samples, passes int) error {
	size := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1} //nolint:gosec // validated dimensions
	sc := uint32(samples)                                                         //nolint:gosec // validated sample count

	ts.layers = make([]texture, passes)
	for k := range ts.layers {
		label := fmt.Sprintf("elviz_layer_%d", k)
		if err := ts.layers[k].create(device, label, size, sc, layerFormat,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding); err != nil {
			return err
		}
	}
	for i := range ts.depth {
		label := fmt.Sprintf("elviz_depth_%d", i)
		if err := ts.depth[i].create(device, label, size, sc, depthFormat,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding); err != nil {
			return err
		}
	}
	return ts.output.create(device, "elviz_output", size, 1, outputFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
}

func (t *texture) create(device hal.Device, label string, size hal.Extent3D, samples uint32,
	format gputypes.TextureFormat, usage gputypes.TextureUsage,
) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("create texture %s: %w", label, err)
	}
	t.tex = tex
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:  label + "_view",
		Format: format,
	})
	if err != nil {
		return fmt.Errorf("create texture view %s: %w", label, err)
	}
	t.view = view
	t.usage = gputypes.TextureUsageRenderAttachment
	return nil
}

// transition records a barrier moving t to usage, if it is not there yet.
func (t *texture) transition(encoder hal.CommandEncoder, usage gputypes.TextureUsage) {
	if t.usage == usage {
		return
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: t.usage,
			NewUsage: usage,
		},
	}})
	t.usage = usage
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
	}
	*t = texture{}
}

// destroy releases all views and textures. Each resource is nil-checked to
// support partial cleanup.
func (ts *targetTextures) destroy(device hal.Device) {
	for k := range ts.layers {
		ts.layers[k].destroy(device)
	}
	ts.layers = nil
	ts.depth[0].destroy(device)
	ts.depth[1].destroy(device)
	ts.output.destroy(device)
}
