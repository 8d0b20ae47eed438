// blend.go — Separable and luminosity blend modes, source-over compositing.
package compose

import (
	"image"
	"math"

	"github.com/xob0t/PosterStencil/pkg/poster"
)

type rgb [3]float64

// mix returns B(cb, cs), the blended colour for backdrop cb and source cs.
// Colours are non-premultiplied, in [0, 1].
func mix(mode poster.BlendMode, cb, cs rgb) rgb {
	if mode == poster.BlendLuminosity {
		return setLum(cb, lum(cs))
	}
	var out rgb
	for i := range out {
		out[i] = mixChannel(mode, cb[i], cs[i])
	}
	return out
}

func mixChannel(mode poster.BlendMode, b, s float64) float64 {
	switch mode {
	case poster.BlendMultiply:
		return b * s
	case poster.BlendScreen:
		return b + s - b*s
	case poster.BlendOverlay:
		return hardLight(s, b)
	case poster.BlendDarken:
		return math.Min(b, s)
	case poster.BlendLighten:
		return math.Max(b, s)
	case poster.BlendColorDodge:
		switch {
		case b == 0:
			return 0
		case s >= 1:
			return 1
		}
		return math.Min(1, b/(1-s))
	case poster.BlendSoftLight:
		if s <= 0.5 {
			return b - (1-2*s)*b*(1-b)
		}
		d := math.Sqrt(b)
		if b <= 0.25 {
			d = ((16*b-12)*b + 4) * b
		}
		return b + (2*s-1)*(d-b)
	case poster.BlendDifference:
		return math.Abs(b - s)
	}
	return s
}

// hardLight is the W3C hard-light function; overlay is hard-light with
// backdrop and source swapped.
func hardLight(b, s float64) float64 {
	if s <= 0.5 {
		return b * 2 * s
	}
	s = 2*s - 1
	return b + s - b*s
}

func lum(c rgb) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func setLum(c rgb, l float64) rgb {
	d := l - lum(c)
	return clipColor(rgb{c[0] + d, c[1] + d, c[2] + d})
}

func clipColor(c rgb) rgb {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	for i := range c {
		if n < 0 {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
		if x > 1 {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

// composite blends the premultiplied layer buffer src onto dst over src's
// bounds. opacity scales the layer's alpha; the result uses source-over
// with the blended colour, following the W3C compositing model.
func composite(dst, src *image.RGBA, mode poster.BlendMode, opacity float64) {
	r := src.Bounds().Intersect(dst.Bounds())
	if r.Empty() || opacity <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(r.Min.X, y)
		di := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, si, di = x+1, si+4, di+4 {
			s := src.Pix[si : si+4 : si+4]
			if s[3] == 0 {
				continue
			}
			d := dst.Pix[di : di+4 : di+4]

			sa := float64(s[3]) / 255 * opacity
			da := float64(d[3]) / 255
			cs := unpremul(s)
			cb := unpremul(d)

			blended := cs
			if mode != poster.BlendNormal && da > 0 {
				m := mix(mode, cb, cs)
				for i := range blended {
					blended[i] = (1-da)*cs[i] + da*m[i]
				}
			}
			for i := range 3 {
				co := sa*blended[i] + (1-sa)*da*cb[i]
				d[i] = to8(co)
			}
			d[3] = to8(sa + da*(1-sa))
		}
	}
}

func unpremul(p []byte) rgb {
	if p[3] == 0 {
		return rgb{}
	}
	a := float64(p[3])
	return rgb{float64(p[0]) / a, float64(p[1]) / a, float64(p[2]) / a}
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
