// ABOUTME: Error values returned by the engine
// ABOUTME: Sentinels for errors.Is plus the definition load error type
package adaptive

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat means the output format cannot be mixed into
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNotFound means an unknown track, audio, file or layer name
	ErrNotFound = errors.New("not found")

	// ErrClippingDetected is reported when mixed samples hit the integer range limits
	ErrClippingDetected = errors.New("clipping detected")

	// ErrQueueFull means the mixer has not drained pending commands
	ErrQueueFull = errors.New("command queue full")
)

// DefinitionLoadError reports a failed definition load. State loaded before the
// failing call is left untouched.
type DefinitionLoadError struct {
	Source string
	Err    error
}

func (e *DefinitionLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to load definitions: %v", e.Err)
	}
	return fmt.Sprintf("failed to load definitions from %s: %v", e.Source, e.Err)
}

func (e *DefinitionLoadError) Unwrap() error {
	return e.Err
}
