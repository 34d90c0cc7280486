//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/elviz"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// materialUniformSize is the WGSL size of the Material uniform struct.
const materialUniformSize = 80

// batchBuffers is the device copy of an elviz.Batch: its vertex buffer and
// material uniform. It is cached on the batch and refreshed when the batch
// generation changes.
type batchBuffers struct {
	dev *Device
	gen uint64

	vertexBuf hal.Buffer
	vertexCap uint64
	count     uint32

	materialBuf hal.Buffer
	bindGroup   hal.BindGroup
}

// Release implements elviz.Resource.
func (b *batchBuffers) Release() {
	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	b.destroyLocked()
}

func (b *batchBuffers) destroyLocked() {
	d := b.dev
	if d.device != nil {
		if b.bindGroup != nil {
			d.device.DestroyBindGroup(b.bindGroup)
		}
		if b.materialBuf != nil {
			d.device.DestroyBuffer(b.materialBuf)
		}
		if b.vertexBuf != nil {
			d.device.DestroyBuffer(b.vertexBuf)
		}
	}
	b.bindGroup, b.materialBuf, b.vertexBuf = nil, nil, nil
	b.vertexCap, b.count = 0, 0
	delete(d.batches, b)
}

// uploadLocked returns the up-to-date device copy of b, creating or
// refreshing it as needed. The vertex buffer is reused while it is large
// enough.
func (d *Device) uploadLocked(b *elviz.Batch) (*batchBuffers, error) {
	gen := b.Generation()
	bb, _ := b.Resource(d).(*batchBuffers)
	if bb != nil && bb.gen == gen && bb.vertexBuf != nil {
		return bb, nil
	}
	fresh := bb == nil
	if fresh {
		bb = &batchBuffers{dev: d}
	}

	vertices := packVertices(b.Vertices)
	size := uint64(len(vertices))
	if bb.vertexBuf == nil || bb.vertexCap < size {
		if bb.vertexBuf != nil {
			d.device.DestroyBuffer(bb.vertexBuf)
			bb.vertexBuf = nil
		}
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "elviz_vertices",
			Size:  size,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			bb.destroyLocked()
			return nil, fmt.Errorf("create vertex buffer: %w", err)
		}
		bb.vertexBuf, bb.vertexCap = buf, size
	}
	d.queue.WriteBuffer(bb.vertexBuf, 0, vertices)
	bb.count = uint32(len(b.Vertices)) //nolint:gosec // vertex count fits uint32

	if bb.materialBuf == nil {
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "elviz_material",
			Size:  materialUniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			bb.destroyLocked()
			return nil, fmt.Errorf("create material buffer: %w", err)
		}
		bb.materialBuf = buf
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "elviz_material_bind",
			Layout: d.materialLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: materialUniformSize}},
			},
		})
		if err != nil {
			bb.destroyLocked()
			return nil, fmt.Errorf("create material bind group: %w", err)
		}
		bb.bindGroup = bg
	}
	d.queue.WriteBuffer(bb.materialBuf, 0, packMaterial(&b.Material))

	bb.gen = gen
	d.batches[bb] = struct{}{}
	if fresh {
		b.SetResource(d, bb)
	}
	return bb, nil
}

// packVertices serializes vertices in the peel shader's input layout.
func packVertices(vs []elviz.Vertex) []byte {
	buf := make([]byte, 0, len(vs)*vertexStride)
	for i := range vs {
		v := &vs[i]
		buf = appendFloats(buf, v.Clip[:]...)
		buf = appendFloats(buf, v.Color[:]...)
		buf = appendFloats(buf, v.World[:]...)
		buf = appendFloats(buf, v.Normal[:]...)
	}
	return buf
}

// packMaterial serializes m in the WGSL uniform layout:
// eye, lit, light, shininess, ambient, diffuse, specular (vec3s 16-aligned).
func packMaterial(m *elviz.Material) []byte {
	buf := make([]byte, 0, materialUniformSize)
	var lit uint32
	if m.Lit {
		lit = 1
	}
	buf = appendFloats(buf, m.Eye[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, lit)
	buf = appendFloats(buf, m.Light[:]...)
	buf = appendFloats(buf, m.Shininess)
	buf = appendFloats(buf, m.Ambient[:]...)
	buf = appendFloats(buf, 0)
	buf = appendFloats(buf, m.Diffuse[:]...)
	buf = appendFloats(buf, 0)
	buf = appendFloats(buf, m.Specular[:]...)
	buf = appendFloats(buf, 0)
	return buf
}

func appendFloats(buf []byte, fs ...float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
