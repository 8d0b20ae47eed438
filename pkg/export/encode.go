// encode.go — PNG/JPEG encoding with density metadata.
package export

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/xob0t/PosterStencil/pkg/density"
)

// Encode writes img in the format of s and stamps s.DPI into the result.
// Quality applies to JPEG only.
func Encode(img image.Image, s Settings) ([]byte, error) {
	s = s.Normalize()
	var opts []imaging.EncodeOption
	if s.Format == JPEG {
		opts = append(opts, imaging.JPEGQuality(int(math.Round(s.Quality*100))))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, s.Format.imagingFormat(), opts...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Format, err)
	}
	data := buf.Bytes()
	if s.Format == JPEG {
		data = withJFIF(data)
	}
	return density.Write(data, s.DPI), nil
}

// withJFIF inserts a JFIF APP0 segment right after SOI unless one is
// already there. image/jpeg writes none.
func withJFIF(data []byte) []byte {
	if len(data) < 2 || density.HasJFIF(data) {
		return data
	}
	seg := density.JFIFSegment()
	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}
