// layout.go — Placement zone and per-layer geometry.
package compose

import (
	"math"

	"github.com/xob0t/PosterStencil/pkg/poster"
	"github.com/xob0t/PosterStencil/pkg/shape"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Box is an axis-aligned rectangle in canvas pixels.
type Box struct {
	X, Y, W, H float64
}

// Center returns the geometric centre of b.
func (b Box) Center() vec.Vec2 {
	return vec.Vec2{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Expand grows b by dx on the left and right and dy on top and bottom.
func (b Box) Expand(dx, dy float64) Box {
	return Box{X: b.X - dx, Y: b.Y - dy, W: b.W + 2*dx, H: b.H + 2*dy}
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	x0, y0 := math.Min(b.X, o.X), math.Min(b.Y, o.Y)
	x1, y1 := math.Max(b.X+b.W, o.X+o.W), math.Max(b.Y+b.H, o.Y+o.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Corners returns the corners of b clockwise from the top left.
func (b Box) Corners() [4]vec.Vec2 {
	return [4]vec.Vec2{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
}

// Zone is the normalized placement zone, in fractions of the canvas.
type Zone struct {
	Top, Bottom float64 // vertical extent
	Inset       float64 // horizontal inset on each side
}

// DefaultZone spans 62%..76% of the height and the middle 30% of the width.
var DefaultZone = Zone{Top: 0.62, Bottom: 0.76, Inset: 0.35}

// Rect returns the zone in pixels for a width×height canvas.
func (z Zone) Rect(width, height int) Box {
	w, h := float64(width), float64(height)
	return Box{
		X: z.Inset * w,
		Y: z.Top * h,
		W: (1 - 2*z.Inset) * w,
		H: (z.Bottom - z.Top) * h,
	}
}

// Geometry is where a layer lands on the canvas.
type Geometry struct {
	Image  Box           // bitmap rectangle before rotation
	Plate  Box           // plate rectangle before rotation; equals Image without plate
	Matrix matrix.Matrix // rotation around the centre of Image
}

// Outline returns the box that encloses image and plate before rotation.
func (g Geometry) Outline() Box {
	return g.Image.Union(g.Plate)
}

// Quad returns the corners of b after rotation.
func (g Geometry) Quad(b Box) [4]vec.Vec2 {
	q := b.Corners()
	for i := range q {
		q[i] = shape.Apply(g.Matrix, q[i])
	}
	return q
}

// Layout computes the geometry of l inside zone. The bitmap is fitted into
// the zone keeping its aspect ratio, scaled by the layer's scale percent,
// centred, and then shifted by the offset percentages of the zone size.
// ok is false for layers without a bitmap.
func Layout(l poster.Layer, zone Box) (g Geometry, ok bool) {
	iw, ih := l.Size()
	if iw <= 0 || ih <= 0 {
		return Geometry{}, false
	}
	fit := math.Min(zone.W/float64(iw), zone.H/float64(ih))
	scale := fit * l.Placement.Scale / 100
	w, h := float64(iw)*scale, float64(ih)*scale

	img := Box{
		X: zone.X + (zone.W-w)/2 + l.Placement.X/100*zone.W,
		Y: zone.Y + (zone.H-h)/2 + l.Placement.Y/100*zone.H,
		W: w,
		H: h,
	}
	g = Geometry{
		Image:  img,
		Plate:  img,
		Matrix: shape.RotateAbout(img.Center(), l.Placement.Rotation),
	}
	if l.Plate.Enabled() {
		g.Plate = img.Expand(w*l.Plate.PaddingX/100, h*l.Plate.PaddingY/100)
	}
	return g, true
}
