// jpeg.go — JFIF APP0 density patching for JPEG buffers.
package density

import (
	"bytes"
	"encoding/binary"
)

var (
	soi          = []byte{0xff, 0xd8}
	app0         = []byte{0xff, 0xe0}
	jfifIdent    = []byte{'J', 'F', 'I', 'F', 0}
	jfifUnitInch = byte(1)
)

// Byte offsets inside a buffer that starts with SOI followed by APP0.
const (
	jfifLenOff   = 4
	jfifIdentOff = 6
	jfifUnitsOff = 13
	jfifXDenOff  = 14
	jfifYDenOff  = 16
	jfifMinLen   = 16 // segment length field value, including itself
)

// JPEG returns a copy of buf with the JFIF density set to dpi pixels per
// inch. The APP0 segment is patched in place; it is never inserted, so a
// buffer without one comes back unchanged.
func JPEG(buf []byte, dpi int) []byte {
	if !HasJFIF(buf) {
		tracer().Debugf("density: no JFIF APP0 segment, skipping")
		return buf
	}
	dpi = clampDPI(dpi)
	out := bytes.Clone(buf)
	out[jfifUnitsOff] = jfifUnitInch
	binary.BigEndian.PutUint16(out[jfifXDenOff:], uint16(dpi))
	binary.BigEndian.PutUint16(out[jfifYDenOff:], uint16(dpi))
	return out
}

// JFIFSegment returns an APP0 segment (marker included) declaring JFIF 1.01
// with a 1:1 aspect ratio and no thumbnail.
func JFIFSegment() []byte {
	seg := make([]byte, 2+jfifMinLen)
	copy(seg, app0)
	binary.BigEndian.PutUint16(seg[2:], jfifMinLen)
	copy(seg[4:], jfifIdent)
	seg[9], seg[10] = 1, 1 // version
	seg[11] = 0            // units: aspect ratio only
	binary.BigEndian.PutUint16(seg[12:], 1)
	binary.BigEndian.PutUint16(seg[14:], 1)
	return seg
}

// HasJFIF reports whether buf starts with SOI immediately followed by a
// JFIF APP0 segment large enough to hold the density fields.
func HasJFIF(buf []byte) bool {
	if len(buf) < jfifYDenOff+2 {
		return false
	}
	if !bytes.HasPrefix(buf, soi) || !bytes.Equal(buf[2:4], app0) {
		return false
	}
	if binary.BigEndian.Uint16(buf[jfifLenOff:]) < jfifMinLen {
		return false
	}
	return bytes.Equal(buf[jfifIdentOff:jfifIdentOff+len(jfifIdent)], jfifIdent)
}

func readJPEG(buf []byte) (int, bool) {
	if !HasJFIF(buf) || buf[jfifUnitsOff] != jfifUnitInch {
		return 0, false
	}
	x := binary.BigEndian.Uint16(buf[jfifXDenOff:])
	y := binary.BigEndian.Uint16(buf[jfifYDenOff:])
	if x != y {
		return 0, false
	}
	return int(x), true
}
