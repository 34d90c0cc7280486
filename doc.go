// Package elviz renders animated scenes of translucent lines, surfaces and
// disks, and streams the frames to a window or a video file.
//
// # Overview
//
// A Scene holds drawables (SegmentSet, PolylineSet, Surface, Disk) and
// composites them with depth peeling: translucent primitives blend
// correctly no matter in which order they were added, with no sorting on
// the caller's side.
//
// # Quick Start
//
//	import "github.com/gogpu/elviz"
//
//	sc, err := elviz.NewScene(500, 500, elviz.White, elviz.WithPasses(4), elviz.WithSamples(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sc.Close()
//
//	line := elviz.NewPolyline([]elviz.Point{
//	    elviz.Pt(-0.5, -0.5, 0, elviz.Red),
//	    elviz.Pt(0.5, 0.5, 0, elviz.Blue),
//	}, 4, elviz.LineCapRound)
//	sc.Add(line)
//
//	img := sc.Render() // *elviz.Image, also an image.Image
//
// # Devices
//
// Rendering runs on a Device. The software device is always available. The
// GPU device (wgpu, Vulkan) is enabled by importing the gpu package:
//
//	import _ "github.com/gogpu/elviz/gpu"
//
// NewScene picks the GPU device when it can be opened and falls back to
// software otherwise. Use WithDevice to choose explicitly.
//
// # Coordinate System
//
// Drawables are positioned in model space and transformed by their model,
// view and projection matrices into OpenGL-style clip space: x right, y up,
// depth from -1 (near) to 1 (far). Rendered images store the top row first.
// Line widths are measured in pixels.
//
// # Sinks
//
// Rendered images are consumed by the window package (on-screen, with fill,
// fit and absolute layouts) and the video package (Y4M stream or PNG frame
// sequence).
package elviz

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
