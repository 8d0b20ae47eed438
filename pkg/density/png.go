// png.go — pHYs chunk insertion for PNG buffers.
package density

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	chunkHeaderLen = 8 // length + type
	chunkCRCLen    = 4
	physPayloadLen = 9
	physUnitMeter  = 1
	inchInMeters   = 0.0254
)

var errMalformed = errors.New("malformed PNG chunk stream")

// Chunk is one entry of a PNG chunk stream. Data aliases the parsed buffer.
type Chunk struct {
	Type   string
	Data   []byte
	CRC    uint32
	Offset int // byte offset of the length field
}

// Len returns the chunk size on disk.
func (c Chunk) Len() int {
	return chunkHeaderLen + len(c.Data) + chunkCRCLen
}

// Chunks parses the chunk list following the PNG signature.
// Parsing stops after IEND; trailing bytes are ignored.
func Chunks(buf []byte) ([]Chunk, error) {
	if !bytes.HasPrefix(buf, pngSignature) {
		return nil, errors.New("not a PNG buffer")
	}
	var chunks []Chunk
	off := len(pngSignature)
	for off < len(buf) {
		if len(buf)-off < chunkHeaderLen+chunkCRCLen {
			return chunks, errMalformed
		}
		n := int(binary.BigEndian.Uint32(buf[off : off+4]))
		end := off + chunkHeaderLen + n + chunkCRCLen
		if n < 0 || end > len(buf) || end < off {
			return chunks, errMalformed
		}
		c := Chunk{
			Type:   string(buf[off+4 : off+8]),
			Data:   buf[off+8 : off+8+n],
			CRC:    binary.BigEndian.Uint32(buf[end-4 : end]),
			Offset: off,
		}
		chunks = append(chunks, c)
		off = end
		if c.Type == "IEND" {
			break
		}
	}
	return chunks, nil
}

// PixelsPerMeter converts dots per inch to the pHYs unit.
func PixelsPerMeter(dpi int) uint32 {
	return uint32(math.Round(float64(dpi) / inchInMeters))
}

// PhysChunk builds a complete 21-byte pHYs chunk for a uniform dpi.
func PhysChunk(dpi int) []byte {
	ppm := PixelsPerMeter(dpi)
	chunk := make([]byte, chunkHeaderLen+physPayloadLen+chunkCRCLen)
	binary.BigEndian.PutUint32(chunk[0:4], physPayloadLen)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = physUnitMeter
	// The CRC covers type and payload, not the length field.
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))
	return chunk
}

// PNG returns a copy of buf with a pHYs chunk placed directly after IHDR.
// Existing pHYs chunks are dropped, so the result carries exactly one.
// Buffers that do not parse as PNG are returned unchanged.
func PNG(buf []byte, dpi int) []byte {
	chunks, err := Chunks(buf)
	if err != nil || len(chunks) == 0 || chunks[0].Type != "IHDR" {
		tracer().Debugf("density: PNG stream not recognised, skipping pHYs")
		return buf
	}
	phys := PhysChunk(clampDPI(dpi))

	out := make([]byte, 0, len(buf)+len(phys))
	out = append(out, buf[:len(pngSignature)]...)
	for i, c := range chunks {
		if c.Type == "pHYs" {
			continue
		}
		out = append(out, buf[c.Offset:c.Offset+c.Len()]...)
		if i == 0 {
			out = append(out, phys...)
		}
	}
	last := chunks[len(chunks)-1]
	out = append(out, buf[last.Offset+last.Len():]...)
	return out
}

func readPNG(buf []byte) (int, bool) {
	chunks, err := Chunks(buf)
	if err != nil {
		return 0, false
	}
	for _, c := range chunks {
		if c.Type != "pHYs" || len(c.Data) != physPayloadLen {
			continue
		}
		x := binary.BigEndian.Uint32(c.Data[0:4])
		y := binary.BigEndian.Uint32(c.Data[4:8])
		if c.Data[8] != physUnitMeter || x != y {
			return 0, false
		}
		return int(math.Round(float64(x) * inchInMeters)), true
	}
	return 0, false
}
