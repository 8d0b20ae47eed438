// Package shape builds rounded-rectangle, ring and dash outlines and turns
// them into alpha masks for filling, stroking and clipping.
//
// Paths are constructed in user space with seehuhn.de/go/geom and moved to
// device space by an affine matrix before rasterisation.
package shape

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// kappa places cubic control points so that a quarter circle is
// approximated with an error below 0.03%.
const kappa = 0.5522847498307936

func pt(x, y float64) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}

// Rect returns a closed axis-aligned rectangle.
func Rect(x, y, w, h float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x, y)).
		LineTo(pt(x+w, y)).
		LineTo(pt(x+w, y+h)).
		LineTo(pt(x, y+h)).
		Close()
}

// RoundedRect returns a closed rectangle whose corners are quarter circles
// of radius r. The radius is limited to half the shorter side; r <= 0
// yields a plain rectangle.
func RoundedRect(x, y, w, h, r float64) *path.Data {
	return appendRoundedRect(&path.Data{}, x, y, w, h, r, false)
}

// Ring returns the outline of a stroke of the given width centred on the
// rounded rectangle (x, y, w, h, r). The inner contour runs in the opposite
// direction so that nonzero filling leaves the inside empty.
func Ring(x, y, w, h, r, width float64) *path.Data {
	hw := width / 2
	outerR := 0.0
	if r > 0 {
		outerR = r + hw
	}
	p := appendRoundedRect(&path.Data{}, x-hw, y-hw, w+width, h+width, outerR, false)
	if w > width && h > width {
		p = appendRoundedRect(p, x+hw, y+hw, w-width, h-width, math.Max(r-hw, 0), true)
	}
	return p
}

// DashedRect returns the outline of a dashed stroke of the given width along
// the rectangle (x, y, w, h). Dashes use butt ends and the dash state carries
// over from one side to the next. An odd-length pattern is repeated once,
// and a pattern without positive entries produces a solid stroke.
func DashedRect(x, y, w, h, width float64, pattern []float64) *path.Data {
	total := 0.0
	for _, v := range pattern {
		total += math.Max(v, 0)
	}
	if total <= 0 {
		return Ring(x, y, w, h, 0, width)
	}
	if len(pattern)%2 == 1 {
		pattern = append(append([]float64{}, pattern...), pattern...)
	}

	p := &path.Data{}
	corners := [5]vec.Vec2{pt(x, y), pt(x+w, y), pt(x+w, y+h), pt(x, y+h), pt(x, y)}
	idx := 0
	left := math.Max(pattern[0], 0)
	for i := 0; i < 4; i++ {
		a, b := corners[i], corners[i+1]
		length := b.Sub(a).Length()
		if length == 0 {
			continue
		}
		dir := b.Sub(a).Mul(1 / length)
		for pos := 0.0; pos < length; {
			step := math.Min(left, length-pos)
			if idx%2 == 0 && step > 0 {
				p = appendQuad(p, a.Add(dir.Mul(pos)), a.Add(dir.Mul(pos+step)), dir, width)
			}
			pos += step
			left -= step
			if left <= 0 {
				idx = (idx + 1) % len(pattern)
				left = math.Max(pattern[idx], 0)
			}
		}
	}
	return p
}

// appendQuad adds the rectangle of the given width centred on segment a→b.
func appendQuad(p *path.Data, a, b, dir vec.Vec2, width float64) *path.Data {
	n := vec.Vec2{X: -dir.Y, Y: dir.X}.Mul(width / 2)
	return p.
		MoveTo(a.Add(n)).
		LineTo(b.Add(n)).
		LineTo(b.Sub(n)).
		LineTo(a.Sub(n)).
		Close()
}

// appendRoundedRect adds one rounded rectangle contour to p. Without
// reverse the contour runs clockwise on a y-down device.
func appendRoundedRect(p *path.Data, x, y, w, h, r float64, reverse bool) *path.Data {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		if reverse {
			return p.
				MoveTo(pt(x, y)).
				LineTo(pt(x, y+h)).
				LineTo(pt(x+w, y+h)).
				LineTo(pt(x+w, y)).
				Close()
		}
		return p.
			MoveTo(pt(x, y)).
			LineTo(pt(x+w, y)).
			LineTo(pt(x+w, y+h)).
			LineTo(pt(x, y+h)).
			Close()
	}

	k := r * kappa
	x1, y1 := x+w, y+h
	if reverse {
		return p.
			MoveTo(pt(x+r, y)).
			CubeTo(pt(x+r-k, y), pt(x, y+r-k), pt(x, y+r)).
			LineTo(pt(x, y1-r)).
			CubeTo(pt(x, y1-r+k), pt(x+r-k, y1), pt(x+r, y1)).
			LineTo(pt(x1-r, y1)).
			CubeTo(pt(x1-r+k, y1), pt(x1, y1-r+k), pt(x1, y1-r)).
			LineTo(pt(x1, y+r)).
			CubeTo(pt(x1, y+r-k), pt(x1-r+k, y), pt(x1-r, y)).
			Close()
	}
	return p.
		MoveTo(pt(x+r, y)).
		LineTo(pt(x1-r, y)).
		CubeTo(pt(x1-r+k, y), pt(x1, y+r-k), pt(x1, y+r)).
		LineTo(pt(x1, y1-r)).
		CubeTo(pt(x1, y1-r+k), pt(x1-r+k, y1), pt(x1-r, y1)).
		LineTo(pt(x+r, y1)).
		CubeTo(pt(x+r-k, y1), pt(x, y1-r+k), pt(x, y1-r)).
		LineTo(pt(x, y+r)).
		CubeTo(pt(x, y+r-k), pt(x+r-k, y), pt(x+r, y)).
		Close()
}
