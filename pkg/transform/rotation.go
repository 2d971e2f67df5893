// Package transform provides the 2D geometric primitives used when mapping
// between sky-aligned and instrument-aligned pixel coordinate systems:
// position-angle rotation matrices and image rotation about an arbitrary
// center with bilinear resampling.
package transform

import (
	"math"

	"specfield/internal/models"
)

// Rotation is the 2x2 matrix relating sky-aligned (x, y) offsets and
// field-aligned offsets for a position angle measured in degrees east of
// north. The layout is
//
//	[  cos(pa)  sin(pa) ]
//	[ -sin(pa)  cos(pa) ]
//
// which is not the textbook counter-clockwise rotation matrix: the sign
// arrangement encodes the east-of-north angle convention, and the corner
// mapping in the cutout package depends on it.
type Rotation struct {
	M [2][2]float64
}

// NewRotation builds the rotation for a position angle in degrees.
func NewRotation(paDeg float64) Rotation {
	theta := paDeg * math.Pi / 180
	c := math.Cos(theta)
	s := math.Sin(theta)
	return Rotation{M: [2][2]float64{{c, s}, {-s, c}}}
}

// Apply maps an offset vector through the rotation.
func (r Rotation) Apply(v [2]float64) [2]float64 {
	return [2]float64{
		r.M[0][0]*v[0] + r.M[0][1]*v[1],
		r.M[1][0]*v[0] + r.M[1][1]*v[1],
	}
}

// Inverse returns the reverse mapping. The matrix is orthonormal, so the
// inverse is the transpose.
func (r Rotation) Inverse() Rotation {
	return Rotation{M: [2][2]float64{
		{r.M[0][0], r.M[1][0]},
		{r.M[0][1], r.M[1][1]},
	}}
}

// RotateAbout resamples g rotated by angleDeg about the pixel center
// (cx, cy), returning a new grid with the same dimensions. The rotation is
// counter-clockwise in the grid's (x right, y up) orientation. Each output
// pixel is computed by inverse-mapping its coordinates into the input and
// interpolating bilinearly; samples that map outside the input are zero.
func RotateAbout(g *models.Grid, angleDeg, cx, cy float64) *models.Grid {
	theta := angleDeg * math.Pi / 180
	c := math.Cos(theta)
	s := math.Sin(theta)

	out := models.NewGrid(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		dy := float64(y) - cy
		for x := 0; x < g.Width; x++ {
			dx := float64(x) - cx
			// Inverse rotation of the output offset locates the
			// source position for this pixel.
			sx := cx + c*dx + s*dy
			sy := cy - s*dx + c*dy
			out.Set(x, y, bilinear(g, sx, sy))
		}
	}
	return out
}

// bilinear samples the grid at a fractional pixel position. Positions
// outside the grid evaluate to zero.
func bilinear(g *models.Grid, x, y float64) float64 {
	if x < 0 || y < 0 || x > float64(g.Width-1) || y > float64(g.Height-1) {
		return 0
	}

	x0 := math.Floor(x)
	y0 := math.Floor(y)
	i := int(x0)
	j := int(y0)
	fx := x - x0
	fy := y - y0

	i1 := i + 1
	if i1 >= g.Width {
		i1 = i
	}
	j1 := j + 1
	if j1 >= g.Height {
		j1 = j
	}

	v00 := g.At(i, j)
	v10 := g.At(i1, j)
	v01 := g.At(i, j1)
	v11 := g.At(i1, j1)

	top := v01*(1-fx) + v11*fx
	bottom := v00*(1-fx) + v10*fx
	return bottom*(1-fy) + top*fy
}
