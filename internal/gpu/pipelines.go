//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// vertexStride is the byte size of one elviz.Vertex on the GPU:
	// clip vec4, color vec4, world vec3, normal vec3.
	vertexStride = 56

	layerFormat  = gputypes.TextureFormatRGBA16Float
	depthFormat  = gputypes.TextureFormatDepth32Float
	outputFormat = gputypes.TextureFormatRGBA32Float
)

type pipelineKey struct {
	samples, passes int
}

// pipelineSet holds the peeling and compositing pipelines for one sample
// and layer count. Sets are cached per device and shared by its targets.
type pipelineSet struct {
	peelShader     hal.ShaderModule
	passLayout     hal.BindGroupLayout
	peelPipeLayout hal.PipelineLayout
	peelPipeline   hal.RenderPipeline

	compositeShader     hal.ShaderModule
	compositeLayout     hal.BindGroupLayout
	compositePipeLayout hal.PipelineLayout
	compositePipeline   hal.RenderPipeline
}

func (d *Device) pipelineSetLocked(samples, passes int) (*pipelineSet, error) {
	key := pipelineKey{samples, passes}
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}
	p := &pipelineSet{}
	if err := p.create(d.device, d.materialLayout, samples, passes); err != nil {
		p.destroy(d.device)
		return nil, err
	}
	d.pipelines[key] = p
	slogger().Debug("elviz/gpu: pipelines created", "samples", samples, "passes", passes)
	return p, nil
}

func peelVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},  // clip
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1}, // color
				{Format: gputypes.VertexFormatFloat32x3, Offset: 32, ShaderLocation: 2}, // world
				{Format: gputypes.VertexFormatFloat32x3, Offset: 44, ShaderLocation: 3}, // normal
			},
		},
	}
}

func (p *pipelineSet) create(device hal.Device, materialLayout hal.BindGroupLayout, samples, passes int) error {
	if err := p.createPeel(device, materialLayout, samples); err != nil {
		return err
	}
	return p.createComposite(device, samples, passes)
}

func (p *pipelineSet) createPeel(device hal.Device, materialLayout hal.BindGroupLayout, samples int) error {
	src, err := peelShaderSource(samples)
	if err != nil {
		return err
	}
	p.peelShader, err = createShaderModule(device, "elviz_peel", src)
	if err != nil {
		return err
	}

	p.passLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "elviz_pass_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeDepth,
					ViewDimension: gputypes.TextureViewDimension2D,
					Multisampled:  samples > 1,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create pass bind group layout: %w", err)
	}

	p.peelPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "elviz_peel_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.passLayout, materialLayout},
	})
	if err != nil {
		return fmt.Errorf("create peel pipeline layout: %w", err)
	}

	p.peelPipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "elviz_peel_pipeline",
		Layout: p.peelPipeLayout,
		Vertex: hal.VertexState{
			Module:     p.peelShader,
			EntryPoint: "vs_main",
			Buffers:    peelVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.peelShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: layerFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: uint32(samples), //nolint:gosec // validated sample count
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create peel pipeline: %w", err)
	}
	return nil
}

func (p *pipelineSet) createComposite(device hal.Device, samples, passes int) error {
	src, err := compositeShaderSource(samples, passes)
	if err != nil {
		return err
	}
	p.compositeShader, err = createShaderModule(device, "elviz_composite", src)
	if err != nil {
		return err
	}

	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	for k := 0; k < passes; k++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(k + 1), //nolint:gosec // pass count is small
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
				Multisampled:  samples > 1,
			},
		})
	}
	p.compositeLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "elviz_composite_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create composite bind group layout: %w", err)
	}

	p.compositePipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "elviz_composite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.compositeLayout},
	})
	if err != nil {
		return fmt.Errorf("create composite pipeline layout: %w", err)
	}

	p.compositePipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "elviz_composite_pipeline",
		Layout: p.compositePipeLayout,
		Vertex: hal.VertexState{
			Module:     p.compositeShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.compositeShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: outputFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create composite pipeline: %w", err)
	}
	return nil
}

// destroy releases everything created so far; it tolerates partial sets.
func (p *pipelineSet) destroy(device hal.Device) {
	if p.compositePipeline != nil {
		device.DestroyRenderPipeline(p.compositePipeline)
	}
	if p.compositePipeLayout != nil {
		device.DestroyPipelineLayout(p.compositePipeLayout)
	}
	if p.compositeLayout != nil {
		device.DestroyBindGroupLayout(p.compositeLayout)
	}
	if p.compositeShader != nil {
		device.DestroyShaderModule(p.compositeShader)
	}
	if p.peelPipeline != nil {
		device.DestroyRenderPipeline(p.peelPipeline)
	}
	if p.peelPipeLayout != nil {
		device.DestroyPipelineLayout(p.peelPipeLayout)
	}
	if p.passLayout != nil {
		device.DestroyBindGroupLayout(p.passLayout)
	}
	if p.peelShader != nil {
		device.DestroyShaderModule(p.peelShader)
	}
	*p = pipelineSet{}
}
