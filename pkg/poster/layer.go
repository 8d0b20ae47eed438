// Package poster defines the layer model consumed by the compositor.
//
// Layers are values. Every update returns a new Layer with its numeric
// fields clamped to their documented ranges, so a renderer always sees a
// consistent, valid snapshot.
package poster

import (
	"image"
	"math"
)

// Ranges for clamped layer fields.
const (
	MinOffset, MaxOffset     = -50.0, 50.0
	MinScale, MaxScale       = 10.0, 200.0
	MinRotation, MaxRotation = -180.0, 180.0
	MinOpacity, MaxOpacity   = 0.0, 100.0
	MinPadding, MaxPadding   = 0.0, 100.0
	MaxRadius                = 1000.0
	MaxBorderWidth           = 200.0
)

// Placement positions a layer relative to the placement zone.
type Placement struct {
	X        float64 `json:"x"`        // percent of zone width, −50..50
	Y        float64 `json:"y"`        // percent of zone height, −50..50
	Scale    float64 `json:"scale"`    // percent, applied after fit-to-zone
	Rotation float64 `json:"rotation"` // degrees, around the layer centre
}

// Style controls how a layer is painted.
type Style struct {
	Opacity     float64   `json:"opacity"` // percent
	Blend       BlendMode `json:"blend"`
	Radius      float64   `json:"radius"`      // corner radius, px
	BorderWidth float64   `json:"borderWidth"` // px, 0 = no border
	BorderColor Color     `json:"borderColor"`
}

// Plate is the optional card drawn behind a layer.
type Plate struct {
	Type     PlateType `json:"type"`
	PaddingX float64   `json:"paddingX"` // percent of layer width, each side
	PaddingY float64   `json:"paddingY"` // percent of layer height, each side
	Radius   float64   `json:"radius"`   // px
}

// Enabled reports whether the plate is drawn at all.
func (p Plate) Enabled() bool {
	return p.Type != PlateNone
}

// Layer is one overlay bitmap with placement and style.
type Layer struct {
	ID        string
	Source    image.Image // nil until decoded; such layers are not drawn
	Placement Placement
	Style     Style
	Plate     Plate
}

// DefaultPlacement centres a layer at its fitted size, unrotated.
func DefaultPlacement() Placement {
	return Placement{Scale: 100}
}

// DefaultStyle is fully opaque, normal blending, no border.
func DefaultStyle() Style {
	return Style{Opacity: 100, Blend: BlendNormal, BorderColor: White}
}

// DefaultPlate is disabled but carries usable padding for when it is
// switched on.
func DefaultPlate() Plate {
	return Plate{Type: PlateNone, PaddingX: 10, PaddingY: 10, Radius: 12}
}

// NewLayer creates a layer with default placement and style.
func NewLayer(id string, src image.Image) Layer {
	return Layer{
		ID:        id,
		Source:    src,
		Placement: DefaultPlacement(),
		Style:     DefaultStyle(),
		Plate:     DefaultPlate(),
	}
}

// Ready reports whether the layer has a decoded, non-empty bitmap.
func (l Layer) Ready() bool {
	return l.Source != nil && !l.Source.Bounds().Empty()
}

// Size returns the intrinsic pixel size of the bitmap.
func (l Layer) Size() (w, h int) {
	if l.Source == nil {
		return 0, 0
	}
	b := l.Source.Bounds()
	return b.Dx(), b.Dy()
}

// WithSource returns a copy of l showing src.
func (l Layer) WithSource(src image.Image) Layer {
	l.Source = src
	return l
}

// WithPlacement returns a copy of l with p clamped and applied.
func (l Layer) WithPlacement(p Placement) Layer {
	l.Placement = p.Clamp()
	return l
}

// WithStyle returns a copy of l with s clamped and applied.
func (l Layer) WithStyle(s Style) Layer {
	l.Style = s.Clamp()
	return l
}

// WithPlate returns a copy of l with p clamped and applied.
func (l Layer) WithPlate(p Plate) Layer {
	l.Plate = p.Clamp()
	return l
}

// Clamp returns l with every numeric field inside its range.
func (l Layer) Clamp() Layer {
	l.Placement = l.Placement.Clamp()
	l.Style = l.Style.Clamp()
	l.Plate = l.Plate.Clamp()
	return l
}

func (p Placement) Clamp() Placement {
	return Placement{
		X:        clamp(p.X, MinOffset, MaxOffset),
		Y:        clamp(p.Y, MinOffset, MaxOffset),
		Scale:    clamp(p.Scale, MinScale, MaxScale),
		Rotation: clamp(p.Rotation, MinRotation, MaxRotation),
	}
}

func (s Style) Clamp() Style {
	s.Opacity = clamp(s.Opacity, MinOpacity, MaxOpacity)
	s.Radius = clamp(s.Radius, 0, MaxRadius)
	s.BorderWidth = clamp(s.BorderWidth, 0, MaxBorderWidth)
	if int(s.Blend) >= len(blendNames) {
		s.Blend = BlendNormal
	}
	return s
}

func (p Plate) Clamp() Plate {
	p.PaddingX = clamp(p.PaddingX, MinPadding, MaxPadding)
	p.PaddingY = clamp(p.PaddingY, MinPadding, MaxPadding)
	p.Radius = clamp(p.Radius, 0, MaxRadius)
	if p.Type > PlateWhite {
		p.Type = PlateNone
	}
	return p
}

// clamp limits v to [lo, hi]; NaN becomes lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
