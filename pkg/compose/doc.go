/*
Package compose renders a poster: a base image covering the canvas plus an
ordered stack of overlay layers.

Every layer is placed relative to a normalized placement zone, so one layer
configuration renders the same way at any output resolution. List order is
paint order. Each layer is painted into its own transparent buffer (plate
shadow, plate, clipped bitmap, border) and that buffer is then blended onto
the canvas with the layer's blend mode and opacity, so no layer's drawing
state carries over to the next.

Rendering is deterministic and allocates a fresh surface per call.
*/
package compose

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'posterstencil.compose'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.compose")
}
