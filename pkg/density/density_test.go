package density

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 7, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 30), uint8(y * 40), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleJFIF() []byte {
	buf := append([]byte{}, soi...)
	buf = append(buf, JFIFSegment()...)
	buf = append(buf, 0xff, 0xdb, 0x00, 0x04, 0x00, 0x00) // fake DQT
	return append(buf, 0xff, 0xd9)
}

func TestPNGPhysRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "posterstencil.density")
	defer teardown()
	//
	orig := samplePNG(t)
	out := PNG(orig, 300)
	require.Len(t, out, len(orig)+21)

	chunks, err := Chunks(out)
	require.NoError(t, err)
	var phys []Chunk
	var rest []Chunk
	for _, c := range chunks {
		if c.Type == "pHYs" {
			phys = append(phys, c)
		} else {
			rest = append(rest, c)
		}
	}
	require.Len(t, phys, 1)
	assert.Equal(t, "IHDR", chunks[0].Type)
	assert.Equal(t, "pHYs", chunks[1].Type, "pHYs must follow IHDR")

	p := phys[0]
	want := uint32(11811) // round(300 / 0.0254)
	assert.Equal(t, want, binary.BigEndian.Uint32(p.Data[0:4]))
	assert.Equal(t, want, binary.BigEndian.Uint32(p.Data[4:8]))
	assert.Equal(t, byte(1), p.Data[8])
	assert.Equal(t, crc32.ChecksumIEEE(append([]byte("pHYs"), p.Data...)), p.CRC)

	origChunks, err := Chunks(orig)
	require.NoError(t, err)
	require.Len(t, rest, len(origChunks))
	for i := range rest {
		assert.Equal(t, origChunks[i].Type, rest[i].Type)
		assert.Equal(t, origChunks[i].Data, rest[i].Data)
		assert.Equal(t, origChunks[i].CRC, rest[i].CRC)
	}

	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err, "patched PNG must still decode")
}

func TestPNGReplacesExistingPhys(t *testing.T) {
	once := PNG(samplePNG(t), 96)
	twice := PNG(once, 300)
	assert.Len(t, twice, len(once), "second write must replace, not append")

	dpi, ok := Read(twice)
	require.True(t, ok)
	assert.Equal(t, 300, dpi)
}

func TestPNGDoesNotMutateInput(t *testing.T) {
	orig := samplePNG(t)
	keep := bytes.Clone(orig)
	_ = PNG(orig, 150)
	assert.Equal(t, keep, orig)
}

func TestPNGMismatchIsNoop(t *testing.T) {
	garbage := []byte("definitely not a png file")
	assert.Equal(t, garbage, PNG(garbage, 300))

	truncated := samplePNG(t)[:20]
	assert.Equal(t, truncated, PNG(truncated, 300))
}

func TestJPEGDensityRoundTrip(t *testing.T) {
	orig := sampleJFIF()
	out := JPEG(orig, 150)
	require.Len(t, out, len(orig))

	assert.Equal(t, byte(1), out[13])
	assert.Equal(t, []byte{0x00, 0x96}, out[14:16])
	assert.Equal(t, []byte{0x00, 0x96}, out[16:18])
	for i := range orig {
		if i >= 13 && i < 18 {
			continue
		}
		assert.Equalf(t, orig[i], out[i], "byte %d changed", i)
	}

	dpi, ok := Read(out)
	require.True(t, ok)
	assert.Equal(t, 150, dpi)
}

func TestJPEGWithoutJFIFIsUnchanged(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	orig := buf.Bytes()
	// image/jpeg does not emit an APP0 segment.
	require.NotEqual(t, app0, orig[2:4])

	out := JPEG(orig, 300)
	assert.Equal(t, orig, out)
	_, ok := Read(out)
	assert.False(t, ok)
}

func TestWriteDispatch(t *testing.T) {
	pngOut := Write(samplePNG(t), 200)
	dpi, ok := Read(pngOut)
	require.True(t, ok)
	assert.Equal(t, 200, dpi)

	jpgOut := Write(sampleJFIF(), 200)
	dpi, ok = Read(jpgOut)
	require.True(t, ok)
	assert.Equal(t, 200, dpi)

	other := []byte("GIF89a....")
	assert.Equal(t, other, Write(other, 200))
}

func TestDPIClamped(t *testing.T) {
	out := JPEG(sampleJFIF(), 5000)
	dpi, ok := Read(out)
	require.True(t, ok)
	assert.Equal(t, MaxDPI, dpi)
}
