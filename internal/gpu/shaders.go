//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader templates. They are specialized per sample count
// (and, for compositing, per layer count) before compilation.

//go:embed shaders/peel.wgsl
var peelShaderTemplate string

//go:embed shaders/composite.wgsl
var compositeShaderTemplate string

var (
	peelTmpl      = template.Must(template.New("peel").Parse(peelShaderTemplate))
	compositeTmpl = template.Must(template.New("composite").Parse(compositeShaderTemplate))
)

// peelShaderSource returns the peeling shader for the given sample count.
// Multisampled targets read the peeled depth of the fragment's own sample.
func peelShaderSource(samples int) (string, error) {
	data := struct {
		DepthType  string
		DepthIndex string
	}{"texture_depth_2d", "0"}
	if samples > 1 {
		data.DepthType = "texture_depth_multisampled_2d"
		data.DepthIndex = "i32(sample_id)"
	}
	var b strings.Builder
	if err := peelTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("peel shader: %w", err)
	}
	return b.String(), nil
}

type compositeLayer struct {
	Index, Binding int
}

// compositeShaderSource returns the compositing shader for the given
// sample and layer counts. Layer k is bound at binding k+1.
func compositeShaderSource(samples, passes int) (string, error) {
	data := struct {
		LayerType   string
		Samples     int
		Layers      []compositeLayer
		BackToFront []compositeLayer
	}{
		LayerType: "texture_2d<f32>",
		Samples:   samples,
	}
	if samples > 1 {
		data.LayerType = "texture_multisampled_2d<f32>"
	}
	for k := 0; k < passes; k++ {
		data.Layers = append(data.Layers, compositeLayer{Index: k, Binding: k + 1})
	}
	for k := passes - 1; k >= 0; k-- {
		data.BackToFront = append(data.BackToFront, data.Layers[k])
	}
	var b strings.Builder
	if err := compositeTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("composite shader: %w", err)
	}
	return b.String(), nil
}

// compileShaderToSPIRV compiles WGSL source to SPIR-V words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule builds a shader module from WGSL. The source is
// compiled to SPIR-V with naga; when naga rejects it the WGSL is handed to
// the backend as is.
func createShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	source := hal.ShaderSource{WGSL: wgslSource}
	if spirv, err := compileShaderToSPIRV(wgslSource); err == nil {
		source = hal.ShaderSource{SPIRV: spirv}
	} else {
		slogger().Debug("elviz/gpu: naga compile failed, passing WGSL through", "shader", label, "err", err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", label, err)
	}
	return module, nil
}
