// raster.go — path to coverage mask conversion and mask painting.
package shape

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Bounds returns the integer device rectangle enclosing all points of p,
// control points included.
func Bounds(p *path.Data) image.Rectangle {
	if len(p.Coords) == 0 {
		return image.Rectangle{}
	}
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, v := range p.Coords {
		x0, y0 = math.Min(x0, v.X), math.Min(y0, v.Y)
		x1, y1 = math.Max(x1, v.X), math.Max(y1, v.Y)
	}
	return image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
}

// Rasterize returns the anti-aliased coverage of p (nonzero winding) over
// the device rectangle r. The mask has bounds r, so mask and canvas share
// one coordinate system.
func Rasterize(p *path.Data, r image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(r)
	if r.Empty() || len(p.Cmds) == 0 {
		return mask
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	dev := func(v vec.Vec2) (float32, float32) {
		return float32(v.X - ox), float32(v.Y - oy)
	}

	i := 0
	open := false
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(dev(p.Coords[i]))
			i++
			open = true
		case path.CmdLineTo:
			z.LineTo(dev(p.Coords[i]))
			i++
		case path.CmdQuadTo:
			bx, by := dev(p.Coords[i])
			cx, cy := dev(p.Coords[i+1])
			z.QuadTo(bx, by, cx, cy)
			i += 2
		case path.CmdCubeTo:
			bx, by := dev(p.Coords[i])
			cx, cy := dev(p.Coords[i+1])
			dx, dy := dev(p.Coords[i+2])
			z.CubeTo(bx, by, cx, cy, dx, dy)
			i += 3
		case path.CmdClose:
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(mask, r, image.Opaque, image.Point{})
	return mask
}

// Fill paints c through mask onto dst with source-over compositing.
func Fill(dst draw.Image, mask *image.Alpha, c color.Color) {
	r := mask.Bounds().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}
