package elviz

// SceneOption configures a Scene during creation.
//
// Example:
//
//	// Four peeled layers, 4x multisampling, software rendering
//	sc, err := elviz.NewScene(800, 600, elviz.White,
//	    elviz.WithPasses(4),
//	    elviz.WithSamples(4),
//	    elviz.WithDevice(elviz.NewSoftwareDevice()),
//	)
type SceneOption func(*sceneOptions)

// sceneOptions holds optional configuration for Scene creation.
type sceneOptions struct {
	samples int
	passes  int
	device  Device
}

// DefaultPasses is the number of peeled layers when WithPasses is not given.
const DefaultPasses = 4

func defaultSceneOptions() sceneOptions {
	return sceneOptions{
		samples: 0,
		passes:  DefaultPasses,
		device:  nil, // DefaultDevice() if nil
	}
}

// WithSamples sets the multisample count: 0 or 1 disables multisampling,
// 2, 4 and 8 are supported.
func WithSamples(n int) SceneOption {
	return func(o *sceneOptions) {
		o.samples = n
	}
}

// WithPasses sets the number of depth-peeling passes. Each pass peels one
// layer of translucent surfaces; surfaces behind the last layer are not
// drawn.
func WithPasses(p int) SceneOption {
	return func(o *sceneOptions) {
		o.passes = p
	}
}

// WithDevice renders the scene on d instead of the registry's default
// device.
func WithDevice(d Device) SceneOption {
	return func(o *sceneOptions) {
		o.device = d
	}
}
