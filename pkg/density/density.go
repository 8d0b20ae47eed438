// Package density writes physical pixel-density metadata into already
// encoded PNG and JPEG buffers.
//
// The writers never touch pixel data. A buffer that does not look like the
// expected format is returned unchanged: density metadata is a courtesy for
// print workflows, not a correctness requirement of the image itself.
package density

import (
	"bytes"

	"github.com/npillmayer/schuko/tracing"
)

// Bounds for DPI values accepted by the writers.
const (
	MinDPI = 72
	MaxDPI = 600
)

// tracer traces with key 'posterstencil.density'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.density")
}

// Write sets the density of buf to dpi, dispatching on the file signature.
// Unknown formats are returned unchanged.
func Write(buf []byte, dpi int) []byte {
	switch {
	case bytes.HasPrefix(buf, pngSignature):
		return PNG(buf, dpi)
	case bytes.HasPrefix(buf, soi):
		return JPEG(buf, dpi)
	default:
		tracer().Debugf("density: unknown signature, buffer left as is")
		return buf
	}
}

// Read reports the uniform DPI stored in a PNG or JPEG buffer.
// ok is false when the buffer carries no usable density information.
func Read(buf []byte) (dpi int, ok bool) {
	switch {
	case bytes.HasPrefix(buf, pngSignature):
		return readPNG(buf)
	case bytes.HasPrefix(buf, soi):
		return readJPEG(buf)
	}
	return 0, false
}

// clampDPI keeps dpi within [MinDPI, MaxDPI].
func clampDPI(dpi int) int {
	return min(max(dpi, MinDPI), MaxDPI)
}
