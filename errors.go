package elviz

import (
	"errors"
	"fmt"
)

// Construction errors. Per-frame operations never return errors; they
// degrade to no-ops instead.
var (
	// ErrInvalidSize is returned when a scene size is not positive.
	ErrInvalidSize = errors.New("elviz: invalid scene size")

	// ErrInvalidPasses is returned when the peeling pass count is below 1.
	ErrInvalidPasses = errors.New("elviz: pass count must be at least 1")

	// ErrInvalidSamples is returned for an unsupported multisample count.
	ErrInvalidSamples = errors.New("elviz: unsupported sample count")

	// ErrInvalidGrid is returned for a surface grid with an unknown shading mode.
	ErrInvalidGrid = errors.New("elviz: invalid surface grid")

	// ErrNoDevice is returned when no render device is registered.
	ErrNoDevice = errors.New("elviz: no render device available")

	// ErrTargetAllocation is returned when off-screen targets cannot be created.
	ErrTargetAllocation = errors.New("elviz: target allocation failed")
)

// SizeError reports invalid image dimensions.
type SizeError struct {
	Width, Height int
	Reason        string
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("elviz: invalid size %dx%d: %s", e.Width, e.Height, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidSize.
func (e *SizeError) Unwrap() error { return ErrInvalidSize }
