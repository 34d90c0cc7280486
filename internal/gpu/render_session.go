//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/elviz"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// copyPitchAlignment is the BytesPerRow alignment of texture copies.
	copyPitchAlignment = 256

	// outputPixelSize is the byte size of one RGBA32Float texel.
	outputPixelSize = 16
	// layerPixelSize is the byte size of one RGBA16Float sample.
	layerPixelSize = 8
	// depthPixelSize is the byte size of one Depth32Float sample.
	depthPixelSize = 4

	fenceTimeout = 5 * time.Second
)

// Pass bind groups: the first pass ignores the peeled depth; later passes
// draw into depth[k%2] and peel against the other buffer.
const (
	groupFirst = iota
	groupPeelInto0
	groupPeelInto1
)

// target implements elviz.Target on a Device.
type target struct {
	dev   *Device
	cfg   elviz.TargetConfig
	pipes *pipelineSet
	tex   targetTextures

	passParams      [2]hal.Buffer // peel flag off, on
	passGroups      [3]hal.BindGroup
	compositeParams hal.Buffer
	compositeGroup  hal.BindGroup

	staging  hal.Buffer
	rowPitch uint32
	readback []byte
	reserved uint64 // bytes charged to the device memory budget
}

// create allocates textures, uniforms, bind groups and the staging buffer.
func (t *target) create() error {
	device := t.dev.device
	w, h := t.cfg.Width, t.cfg.Height
	if err := t.tex.create(device, w, h, t.cfg.Samples, t.cfg.Passes); err != nil {
		return err
	}

	for i := range t.passParams {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: "elviz_pass_params",
			Size:  16,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create pass params: %w", err)
		}
		t.passParams[i] = buf
		params := make([]byte, 16)
		binary.LittleEndian.PutUint32(params, uint32(i)) //nolint:gosec // 0 or 1
		t.dev.queue.WriteBuffer(buf, 0, params)
	}

	groups := [3]struct {
		params hal.Buffer
		peeled *texture
	}{
		groupFirst:     {t.passParams[0], &t.tex.depth[1]},
		groupPeelInto0: {t.passParams[1], &t.tex.depth[1]},
		groupPeelInto1: {t.passParams[1], &t.tex.depth[0]},
	}
	for i, g := range groups {
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "elviz_pass_bind",
			Layout: t.pipes.passLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: g.params.NativeHandle(), Offset: 0, Size: 16}},
				{Binding: 1, Resource: textureBinding(g.peeled)},
			},
		})
		if err != nil {
			return fmt.Errorf("create pass bind group: %w", err)
		}
		t.passGroups[i] = bg
	}

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "elviz_composite_params",
		Size:  16,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create composite params: %w", err)
	}
	t.compositeParams = buf
	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: 16}},
	}
	for k := range t.tex.layers {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(k + 1), //nolint:gosec // pass count is small
			Resource: textureBinding(&t.tex.layers[k]),
		})
	}
	t.compositeGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "elviz_composite_bind",
		Layout:  t.pipes.compositeLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create composite bind group: %w", err)
	}

	t.rowPitch = alignRowPitch(w)
	stagingSize := uint64(t.rowPitch) * uint64(h)
	t.staging, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "elviz_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	t.readback = make([]byte, stagingSize)
	return nil
}

func textureBinding(t *texture) gputypes.TextureViewBinding {
	return gputypes.TextureViewBinding{TextureView: gputypes.TextureViewHandle(t.view.NativeHandle())}
}

// Render implements elviz.Target.
func (t *target) Render(f *elviz.Frame, dst *elviz.Image) error {
	if dst.Width() != t.cfg.Width || dst.Height() != t.cfg.Height {
		return fmt.Errorf("elviz/gpu: destination is %dx%d, target is %dx%d",
			dst.Width(), dst.Height(), t.cfg.Width, t.cfg.Height)
	}
	d := t.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || t.pipes == nil {
		return ErrDeviceClosed
	}

	batches := make([]*batchBuffers, 0, len(f.Batches))
	for _, b := range f.Batches {
		if b == nil || len(b.Vertices) == 0 {
			continue
		}
		bb, err := d.uploadLocked(b)
		if err != nil {
			return err
		}
		batches = append(batches, bb)
	}

	bg := f.Background
	d.queue.WriteBuffer(t.compositeParams, 0, appendFloats(nil, bg.R, bg.G, bg.B, bg.A))

	if err := t.encodeSubmitReadback(batches); err != nil {
		return err
	}
	t.decode(dst)
	return nil
}

func (t *target) encodeSubmitReadback(batches []*batchBuffers) error {
	d := t.dev
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "elviz_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("elviz_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for k := range t.tex.layers {
		t.encodePeelPass(encoder, k, batches)
	}
	t.encodeComposite(encoder)

	// The output texture must be in copy-source layout for the readback and
	// back in attachment layout for the next frame.
	out := &t.tex.output
	out.transition(encoder, gputypes.TextureUsageCopySrc)
	encoder.CopyTextureToBuffer(out.tex, t.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: t.rowPitch, RowsPerImage: uint32(t.cfg.Height)}, //nolint:gosec // validated dimensions
		TextureBase:  hal.ImageCopyTexture{Texture: out.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: uint32(t.cfg.Width), Height: uint32(t.cfg.Height), DepthOrArrayLayers: 1}, //nolint:gosec // validated dimensions
	}})
	out.transition(encoder, gputypes.TextureUsageRenderAttachment)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		slogger().Warn("elviz/gpu: fence wait failed", "ok", fenceOK, "err", err)
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	if err := d.queue.ReadBuffer(t.staging, 0, t.readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}

// encodePeelPass draws every batch into layer k.
func (t *target) encodePeelPass(encoder hal.CommandEncoder, k int, batches []*batchBuffers) {
	depth := &t.tex.depth[k%2]
	peeled := &t.tex.depth[(k+1)%2]
	layer := &t.tex.layers[k]
	depth.transition(encoder, gputypes.TextureUsageRenderAttachment)
	peeled.transition(encoder, gputypes.TextureUsageTextureBinding)
	layer.transition(encoder, gputypes.TextureUsageRenderAttachment)

	group := t.passGroups[groupFirst]
	if k > 0 {
		group = t.passGroups[groupPeelInto0+k%2]
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "elviz_peel_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       layer.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	rp.SetPipeline(t.pipes.peelPipeline)
	rp.SetBindGroup(0, group, nil)
	for _, b := range batches {
		rp.SetBindGroup(1, b.bindGroup, nil)
		rp.SetVertexBuffer(0, b.vertexBuf, 0)
		rp.Draw(b.count, 1, 0, 0)
	}
	rp.End()
}

// encodeComposite blends the layers into the output texture.
func (t *target) encodeComposite(encoder hal.CommandEncoder) {
	for k := range t.tex.layers {
		t.tex.layers[k].transition(encoder, gputypes.TextureUsageTextureBinding)
	}
	out := &t.tex.output
	out.transition(encoder, gputypes.TextureUsageRenderAttachment)

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "elviz_composite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       out.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.SetPipeline(t.pipes.compositePipeline)
	rp.SetBindGroup(0, t.compositeGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
}

// decode strips the row padding of the readback and stores the texels in dst.
func (t *target) decode(dst *elviz.Image) {
	pix := dst.Pix()
	rowFloats := 4 * t.cfg.Width
	for y := 0; y < t.cfg.Height; y++ {
		src := t.readback[y*int(t.rowPitch):]
		row := pix[y*rowFloats : (y+1)*rowFloats]
		for i := range row {
			row[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
		}
	}
}

// alignRowPitch returns the readback row size of a w pixel wide output.
// BytesPerRow of texture copies must be aligned to 256 bytes.
func alignRowPitch(w int) uint32 {
	bytesPerRow := uint32(w) * outputPixelSize //nolint:gosec // validated dimensions
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// Destroy implements elviz.Target.
func (t *target) Destroy() {
	t.dev.mu.Lock()
	defer t.dev.mu.Unlock()
	t.destroyLocked()
}

func (t *target) destroyLocked() {
	t.dev.mem.release(t.reserved)
	t.reserved = 0
	device := t.dev.device
	if device == nil {
		return
	}
	if t.staging != nil {
		device.DestroyBuffer(t.staging)
	}
	if t.compositeGroup != nil {
		device.DestroyBindGroup(t.compositeGroup)
	}
	if t.compositeParams != nil {
		device.DestroyBuffer(t.compositeParams)
	}
	for _, g := range t.passGroups {
		if g != nil {
			device.DestroyBindGroup(g)
		}
	}
	for _, b := range t.passParams {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
	t.tex.destroy(device)
	t.staging, t.compositeGroup, t.compositeParams = nil, nil, nil
	t.passGroups = [3]hal.BindGroup{}
	t.passParams = [2]hal.Buffer{}
	t.readback = nil
	t.pipes = nil
}
