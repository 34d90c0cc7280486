package elviz

import "testing"

func TestSceneOptions(t *testing.T) {
	o := defaultSceneOptions()
	if o.samples != 0 || o.passes != DefaultPasses || o.device != nil {
		t.Errorf("defaultSceneOptions() = %+v", o)
	}

	dev := NewSoftwareDevice()
	for _, opt := range []SceneOption{WithSamples(8), WithPasses(2), WithDevice(dev)} {
		opt(&o)
	}
	if o.samples != 8 || o.passes != 2 || o.device != dev {
		t.Errorf("options after With* = %+v", o)
	}
}

func TestNewSceneDefaultDevice(t *testing.T) {
	sc, err := NewScene(4, 4, White)
	if err != nil {
		t.Fatalf("NewScene() = %v", err)
	}
	defer sc.Close()
	if sc.Device() == nil || sc.Passes() != DefaultPasses || sc.Samples() != 1 {
		t.Errorf("scene = device %v, passes %d, samples %d", sc.Device(), sc.Passes(), sc.Samples())
	}
}
