// settings.go — Export format and user-facing export settings.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/xob0t/PosterStencil/pkg/density"
)

// ErrUnknownFormat is returned for format names other than png and jpeg.
var ErrUnknownFormat = errors.New("unknown format")

// Format is the output file format.
type Format uint8

const (
	PNG Format = iota
	JPEG
)

// ParseFormat accepts "png", "jpeg" and "jpg", case-insensitively.
// The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) String() string {
	if f == JPEG {
		return "jpeg"
	}
	return "png"
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	return f.String()
}

// MIME is the media type of the encoded file.
func (f Format) MIME() string {
	return "image/" + f.String()
}

func (f Format) imagingFormat() imaging.Format {
	if f == JPEG {
		return imaging.JPEG
	}
	return imaging.PNG
}

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Format) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Quality and filename bounds.
const (
	MinQuality    = 0.1
	MaxQuality    = 1.0
	DefaultPrefix = "export"
)

// Settings describe one export request.
type Settings struct {
	Format     Format     `json:"format"`
	Resolution Resolution `json:"resolution"`
	Quality    float64    `json:"quality"` // JPEG only, 0.1..1
	DPI        int        `json:"dpi"`     // 72..600
	Prefix     string     `json:"prefix"`  // filename prefix
}

// DefaultSettings exports a PNG at the base image size, 300 DPI.
func DefaultSettings() Settings {
	return Settings{
		Format:     PNG,
		Resolution: Original,
		Quality:    0.92,
		DPI:        300,
		Prefix:     DefaultPrefix,
	}
}

// Normalize returns s with every field inside its range. A zero quality
// or DPI takes the default.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.Quality == 0 || math.IsNaN(s.Quality) {
		s.Quality = d.Quality
	}
	s.Quality = math.Min(math.Max(s.Quality, MinQuality), MaxQuality)
	if s.DPI == 0 {
		s.DPI = d.DPI
	}
	s.DPI = min(max(s.DPI, density.MinDPI), density.MaxDPI)
	s.Prefix = strings.TrimSpace(s.Prefix)
	if s.Prefix == "" {
		s.Prefix = DefaultPrefix
	}
	if int(s.Resolution) >= len(resolutions) {
		s.Resolution = Original
	}
	if s.Format > JPEG {
		s.Format = PNG
	}
	return s
}

// Filename returns "{prefix}-{w}x{h}.{ext}".
func (s Settings) Filename(w, h int) string {
	return fmt.Sprintf("%s-%dx%d.%s", s.Prefix, w, h, s.Format.Ext())
}
