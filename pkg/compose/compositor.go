// compositor.go — Base cover, layer passes and the editor selection overlay.
package compose

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/xob0t/PosterStencil/pkg/poster"
	"github.com/xob0t/PosterStencil/pkg/shape"
	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
)

// Options select what a render call is for.
type Options struct {
	// Export suppresses editor-only drawing: the placeholder behind a
	// missing base image and the selection overlay.
	Export bool
	// Selected is the ID of the layer to highlight in editor mode.
	Selected string
}

// Shadow is the drop shadow drawn under plates. Blur follows the canvas
// shadowBlur convention (Gaussian sigma = Blur/2); offsets are in device
// pixels and ignore the layer rotation.
type Shadow struct {
	Blur             float64
	OffsetX, OffsetY float64
	Color            color.NRGBA
}

// Selection styles the editor highlight.
type Selection struct {
	Color  color.NRGBA
	Width  float64   // outline width, px
	Gap    float64   // distance between layer outline and highlight, px
	Handle float64   // side of the square corner handles, px
	Dash   []float64 // on/off lengths, px
}

// Compositor renders base image and layers onto a fresh surface.
// The zero value is not usable; create one with New.
type Compositor struct {
	Zone        Zone
	Shadow      Shadow
	Selection   Selection
	PlateColor  color.NRGBA
	Placeholder [2]color.RGBA // checkerboard colours
	Cell        int           // checkerboard cell size, px
	BaseFilter  imaging.ResampleFilter
	Interp      draw.Interpolator
}

// New returns a Compositor with the standard zone, shadow and selection
// styling.
func New() *Compositor {
	return &Compositor{
		Zone: DefaultZone,
		Shadow: Shadow{
			Blur:    16,
			OffsetY: 6,
			Color:   color.NRGBA{0, 0, 0, 64},
		},
		Selection: Selection{
			Color:  color.NRGBA{0x3b, 0x82, 0xf6, 0xff},
			Width:  2,
			Gap:    6,
			Handle: 10,
			Dash:   []float64{6, 4},
		},
		PlateColor:  color.NRGBA{255, 255, 255, 255},
		Placeholder: [2]color.RGBA{{0xe5, 0xe7, 0xeb, 0xff}, {0xf3, 0xf4, 0xf6, 0xff}},
		Cell:        16,
		BaseFilter:  imaging.CatmullRom,
		Interp:      draw.BiLinear,
	}
}

// Render paints base and layers onto a new width×height surface.
// Layers are drawn in slice order; layers without a bitmap are skipped.
// A nil base leaves the surface transparent in export mode and shows a
// checkerboard placeholder in editor mode.
func (c *Compositor) Render(base image.Image, layers []poster.Layer, width, height int, opts Options) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	if dst.Bounds().Empty() {
		return dst
	}
	c.drawBase(dst, base, opts.Export)

	zone := c.Zone.Rect(width, height)
	for _, l := range layers {
		g, ok := Layout(l, zone)
		if !ok {
			tracer().Debugf("layer %q has no bitmap yet, skipped", l.ID)
			continue
		}
		c.drawLayer(dst, l, g)
		if !opts.Export && opts.Selected != "" && l.ID == opts.Selected {
			c.drawSelection(dst, l, g)
		}
	}
	return dst
}

// drawBase scales base to cover dst, cropping the overflow around the centre.
func (c *Compositor) drawBase(dst *image.RGBA, base image.Image, export bool) {
	b := dst.Bounds()
	if base != nil && !base.Bounds().Empty() {
		cover := imaging.Fill(base, b.Dx(), b.Dy(), imaging.Center, c.BaseFilter)
		draw.Draw(dst, b, cover, cover.Bounds().Min, draw.Src)
		return
	}
	if export {
		return
	}
	cell := max(c.Cell, 1)
	for y := b.Min.Y; y < b.Max.Y; y += cell {
		for x := b.Min.X; x < b.Max.X; x += cell {
			col := c.Placeholder[((x/cell)+(y/cell))%2]
			draw.Draw(dst, image.Rect(x, y, x+cell, y+cell).Intersect(b), image.NewUniform(col), image.Point{}, draw.Src)
		}
	}
}

// drawLayer runs one scoped layer pass. Shadow, plate, bitmap and border
// are drawn one step at a time; each step goes through the layer's blend
// mode and opacity on its own.
func (c *Compositor) drawLayer(dst *image.RGBA, l poster.Layer, g Geometry) {
	reach := g.Outline().Expand(l.Style.BorderWidth/2+1, l.Style.BorderWidth/2+1)
	region := deviceBounds(reach, g.Matrix)
	if l.Plate.Enabled() {
		region = region.Union(c.shadowBounds(g))
	}
	region = region.Intersect(dst.Bounds())
	if region.Empty() {
		tracer().Debugf("layer %q lies outside the canvas", l.ID)
		return
	}

	buf := image.NewRGBA(region)
	step := func(paint func(*image.RGBA)) {
		clear(buf.Pix)
		paint(buf)
		composite(dst, buf, l.Style.Blend, l.Style.Opacity/100)
	}
	if l.Plate.Enabled() {
		if c.Shadow.Color.A > 0 {
			step(func(b *image.RGBA) { c.drawShadow(b, l, g) })
		}
		step(func(b *image.RGBA) { c.drawPlate(b, l, g) })
	}
	step(func(b *image.RGBA) { c.drawBitmap(b, l, g) })
	if l.Style.BorderWidth > 0 {
		ring := shape.Ring(g.Image.X, g.Image.Y, g.Image.W, g.Image.H, l.Style.Radius, l.Style.BorderWidth)
		step(func(b *image.RGBA) {
			shape.Fill(b, shape.Rasterize(shape.Transform(ring, g.Matrix), region), l.Style.BorderColor)
		})
	}
}

// plateOutline is the plate card in device space.
func plateOutline(l poster.Layer, g Geometry) *path.Data {
	p := g.Plate
	return shape.Transform(shape.RoundedRect(p.X, p.Y, p.W, p.H, l.Plate.Radius), g.Matrix)
}

// drawShadow paints the blurred, offset plate silhouette.
func (c *Compositor) drawShadow(buf *image.RGBA, l poster.Layer, g Geometry) {
	offset := shape.Translation(c.Shadow.OffsetX, c.Shadow.OffsetY)
	sr := c.shadowBounds(g)
	mask := shape.Rasterize(shape.Transform(plateOutline(l, g), offset), sr)
	tinted := image.NewNRGBA(sr)
	// mask and tinted are fresh images over the same rectangle.
	for i, a := range mask.Pix {
		o := i * 4
		tinted.Pix[o+0] = c.Shadow.Color.R
		tinted.Pix[o+1] = c.Shadow.Color.G
		tinted.Pix[o+2] = c.Shadow.Color.B
		tinted.Pix[o+3] = uint8((uint32(a)*uint32(c.Shadow.Color.A) + 127) / 255)
	}
	var shadow image.Image = tinted
	if sigma := c.Shadow.Blur / 2; sigma > 0 {
		shadow = imaging.Blur(tinted, sigma)
	}
	draw.Draw(buf, sr, shadow, shadow.Bounds().Min, draw.Over)
}

// drawPlate paints the plate card.
func (c *Compositor) drawPlate(buf *image.RGBA, l poster.Layer, g Geometry) {
	shape.Fill(buf, shape.Rasterize(plateOutline(l, g), buf.Bounds()), c.PlateColor)
}

// drawBitmap maps the source bitmap onto the rotated image box, clipped to
// a rounded rectangle when the layer has a corner radius.
func (c *Compositor) drawBitmap(buf *image.RGBA, l poster.Layer, g Geometry) {
	src := l.Source
	sb := src.Bounds()
	sx := g.Image.W / float64(sb.Dx())
	sy := g.Image.H / float64(sb.Dy())
	place := matrix.Matrix{sx, 0, 0, sy, g.Image.X - sx*float64(sb.Min.X), g.Image.Y - sy*float64(sb.Min.Y)}

	var opts *draw.Options
	if l.Style.Radius > 0 {
		i := g.Image
		clip := shape.Transform(shape.RoundedRect(i.X, i.Y, i.W, i.H, l.Style.Radius), g.Matrix)
		opts = &draw.Options{DstMask: shape.Rasterize(clip, buf.Bounds())}
	}
	c.Interp.Transform(buf, shape.Aff3(shape.Then(place, g.Matrix)), src, sb, draw.Over, opts)
}

// drawSelection outlines the layer (and its plate) with a dashed frame and
// corner handles. It draws straight onto dst with normal compositing.
func (c *Compositor) drawSelection(dst *image.RGBA, l poster.Layer, g Geometry) {
	s := c.Selection
	box := g.Outline().Expand(s.Gap, s.Gap)
	if l.Style.BorderWidth > 0 {
		box = box.Expand(l.Style.BorderWidth/2, l.Style.BorderWidth/2)
	}
	outline := shape.Transform(shape.DashedRect(box.X, box.Y, box.W, box.H, s.Width, s.Dash), g.Matrix)
	shape.Fill(dst, shape.Rasterize(outline, shape.Bounds(outline).Intersect(dst.Bounds())), s.Color)

	for _, corner := range box.Corners() {
		h := shape.Transform(shape.Rect(corner.X-s.Handle/2, corner.Y-s.Handle/2, s.Handle, s.Handle), g.Matrix)
		shape.Fill(dst, shape.Rasterize(h, shape.Bounds(h).Intersect(dst.Bounds())), s.Color)
	}
}

// shadowBounds returns the device rectangle the plate shadow can touch.
func (c *Compositor) shadowBounds(g Geometry) image.Rectangle {
	margin := int(math.Ceil(3*c.Shadow.Blur/2)) + 1
	r := deviceBounds(g.Plate, g.Matrix)
	r = r.Add(image.Pt(int(math.Round(c.Shadow.OffsetX)), int(math.Round(c.Shadow.OffsetY))))
	return r.Inset(-margin)
}

// deviceBounds returns the integer bounds of b after applying m.
func deviceBounds(b Box, m matrix.Matrix) image.Rectangle {
	return shape.Bounds(shape.Transform(shape.Rect(b.X, b.Y, b.W, b.H), m))
}
