// affine.go — 2×3 matrices in PDF convention: x' = a·x + c·y + e, y' = b·x + d·y + f.
package shape

import (
	"math"
	"slices"

	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Translation returns a matrix that moves points by (dx, dy).
func Translation(dx, dy float64) matrix.Matrix {
	return matrix.Matrix{1, 0, 0, 1, dx, dy}
}

// RotateAbout returns the rotation by deg degrees around c. Positive angles
// turn clockwise on a y-down device, like a canvas rotate() call.
func RotateAbout(c vec.Vec2, deg float64) matrix.Matrix {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return matrix.Matrix{
		cos, sin,
		-sin, cos,
		c.X - cos*c.X + sin*c.Y,
		c.Y - sin*c.X - cos*c.Y,
	}
}

// Then returns the matrix that applies first, then second.
func Then(first, second matrix.Matrix) matrix.Matrix {
	a1, b1, c1, d1, e1, f1 := first[0], first[1], first[2], first[3], first[4], first[5]
	a2, b2, c2, d2, e2, f2 := second[0], second[1], second[2], second[3], second[4], second[5]
	return matrix.Matrix{
		a2*a1 + c2*b1,
		b2*a1 + d2*b1,
		a2*c1 + c2*d1,
		b2*c1 + d2*d1,
		a2*e1 + c2*f1 + e2,
		b2*e1 + d2*f1 + f2,
	}
}

// Apply maps v through m.
func Apply(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*v.X + m[2]*v.Y + m[4],
		Y: m[1]*v.X + m[3]*v.Y + m[5],
	}
}

// Aff3 converts m to the row-major layout used by golang.org/x/image/draw.
func Aff3(m matrix.Matrix) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Transform returns a copy of p with every coordinate mapped through m.
func Transform(p *path.Data, m matrix.Matrix) *path.Data {
	coords := make([]vec.Vec2, len(p.Coords))
	for i, v := range p.Coords {
		coords[i] = Apply(m, v)
	}
	return &path.Data{
		Cmds:   slices.Clone(p.Cmds),
		Coords: coords,
	}
}
