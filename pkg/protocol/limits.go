package protocol

import "errors"

// Depth limits to prevent stack overflow via deeply nested input.
const (
	// MaxNodeDepth limits the nesting depth of decoded node trees.
	MaxNodeDepth = 256

	// MaxPatchDepth limits the nesting of patch lists (thunk patches,
	// reorders and moves).
	MaxPatchDepth = 128

	// MaxPayloadDepth limits the nesting of JSON event payloads.
	MaxPayloadDepth = 64
)

// ErrMaxDepthExceeded is returned when input nests deeper than allowed.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// depthContext tracks the current decoding depth for recursive structures.
type depthContext struct {
	current int
	max     int
}

func newDepthContext(max int) *depthContext {
	return &depthContext{max: max}
}

// enter increments the depth and returns an error if the limit would be
// exceeded. The depth is only incremented on success.
func (dc *depthContext) enter() error {
	if dc.current >= dc.max {
		return ErrMaxDepthExceeded
	}
	dc.current++
	return nil
}

func (dc *depthContext) leave() {
	dc.current--
}
