// Command elviz-demo renders animated elviz scenes to a video file, a PNG
// sequence or a window.
//
// Usage:
//
//	elviz-demo -scene helix -o helix.y4m
//	elviz-demo -scene wave -o frames/ -frames 60
//	elviz-demo -scene circles -window
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/elviz"
	_ "github.com/gogpu/elviz/gpu"
	"github.com/gogpu/elviz/present"
	"github.com/gogpu/elviz/video"
	"github.com/gogpu/elviz/window"
)

func main() {
	var (
		sceneName = flag.String("scene", "helix", "scene to render: "+strings.Join(demoNames(), ", "))
		frames    = flag.Int("frames", 120, "number of frames to encode")
		width     = flag.Int("width", 500, "scene width")
		height    = flag.Int("height", 500, "scene height")
		samples   = flag.Int("samples", 4, "multisample count (1, 2, 4 or 8)")
		passes    = flag.Int("passes", elviz.DefaultPasses, "depth peeling passes")
		device    = flag.String("device", "", "render device (default: best available)")
		outPath   = flag.String("o", "", "output: a .y4m file, or a directory for a PNG sequence")
		outWidth  = flag.Int("out-width", 0, "video width (default: scene width)")
		outHeight = flag.Int("out-height", 0, "video height (default: scene height)")
		modeName  = flag.String("mode", "fit", "how frames map onto a different output size: fill, fit, absolute")
		fps       = flag.Int("fps", 15, "video frame rate")
		bitRate   = flag.Int("bitrate", 2500000, "video bit rate")
		showWin   = flag.Bool("window", false, "show the animation in a window")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		elviz.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	mode, ok := present.ParseMode(*modeName)
	if !ok {
		log.Fatalf("unknown mode %q", *modeName)
	}
	if *outPath == "" && !*showWin {
		log.Fatal("nothing to do: pass -o and/or -window")
	}

	d, err := newDemo(*sceneName)
	if err != nil {
		log.Fatal(err)
	}

	opts := []elviz.SceneOption{elviz.WithSamples(*samples), elviz.WithPasses(*passes)}
	if *device != "" {
		dev, err := elviz.OpenDevice(*device)
		if err != nil {
			log.Fatalf("open device: %v", err)
		}
		opts = append(opts, elviz.WithDevice(dev))
	}
	scene, err := elviz.NewScene(*width, *height, elviz.White, opts...)
	if err != nil {
		log.Fatalf("create scene: %v", err)
	}
	defer elviz.CloseDevices()
	defer scene.Close()
	for _, dr := range d.drawables {
		scene.Add(dr)
		defer dr.Close()
	}
	log.Printf("scene %s: %dx%d on %s, %d samples, %d passes",
		*sceneName, scene.Width(), scene.Height(), scene.Device().Name(), scene.Samples(), scene.Passes())

	var out *output
	if *outPath != "" {
		cfg := video.Config{Width: *outWidth, Height: *outHeight, FrameRate: *fps, BitRate: *bitRate}
		if cfg.Width == 0 {
			cfg.Width = *width
		}
		if cfg.Height == 0 {
			cfg.Height = *height
		}
		out, err = newOutput(*outPath, cfg, mode)
		if err != nil {
			log.Fatal(err)
		}
	}

	frame := func(n int) (*elviz.Image, error) {
		d.step(n)
		img := scene.Render()
		if out != nil && n < *frames {
			if err := out.write(img); err != nil {
				return nil, err
			}
		}
		return img, nil
	}

	if *showWin {
		w := window.New(window.Config{
			Title:    "elviz: " + *sceneName,
			Width:    *width,
			Height:   *height,
			Mode:     mode,
			QuitKeys: true,
			TPS:      *fps,
		})
		err = w.Run(func(w *window.Window) error {
			img, err := frame(w.Ticks())
			if err != nil {
				return err
			}
			w.Show(img)
			return nil
		})
	} else {
		for n := 0; n < *frames && err == nil; n++ {
			_, err = frame(n)
		}
	}
	if out != nil {
		if cerr := out.close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		log.Fatal(err)
	}
	if out != nil {
		log.Printf("wrote %d frames to %s", out.sink.Frames(), *outPath)
	}
}

// output feeds rendered frames to a video sink, rescaling them when the
// video size differs from the scene size.
type output struct {
	sink   *video.Sink
	mode   present.Mode
	canvas *image.NRGBA
	frame  *elviz.Image
}

func newOutput(path string, cfg video.Config, mode present.Mode) (*output, error) {
	var enc video.Encoder
	if strings.EqualFold(filepath.Ext(path), ".y4m") {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		enc = video.NewY4M(f, cfg)
	} else {
		seq, err := video.NewPNGSequence(path, "")
		if err != nil {
			return nil, err
		}
		enc = seq
	}
	sink, err := video.NewSink(cfg, enc)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &output{sink: sink, mode: mode}, nil
}

func (o *output) write(img *elviz.Image) error {
	cfg := o.sink.Config()
	if img.Width() == cfg.Width && img.Height() == cfg.Height {
		return o.sink.WriteFrame(img)
	}
	if o.canvas == nil {
		o.canvas = image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		o.frame = elviz.NewImage(cfg.Width, cfg.Height)
	}
	present.Blit(o.canvas, img, o.mode, color.Black)
	toImage(o.frame, o.canvas)
	return o.sink.WriteFrame(o.frame)
}

func (o *output) close() error { return o.sink.Close() }

// toImage copies an 8-bit image into dst, which must have the same size.
func toImage(dst *elviz.Image, src *image.NRGBA) {
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			dst.SetRGBA(x, y, elviz.FromColor(src.NRGBAAt(x, y)))
		}
	}
}
