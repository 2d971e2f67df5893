// Package stretch implements the intensity byte-scaling used when preparing
// float-valued image data for display: values are clipped to display limits,
// remapped through a nonlinear stretch (asinh by default), and scaled to the
// 0-255 display range.
package stretch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"specfield/internal/models"
)

// ErrInvalidLimits is returned when the display limits do not form a
// non-empty interval.
var ErrInvalidLimits = errors.New("invalid display limits")

// Limits bounds the intensity range mapped onto the display scale. Values
// below Min clip to the bottom of the scale, values above Max to the top.
type Limits struct {
	Min float64
	Max float64
}

// Stretch remaps a clipped, normalized intensity in [0,1] onto [0,1].
type Stretch interface {
	// Apply evaluates the stretch at a normalized intensity
	Apply(v float64) float64

	// Name identifies the stretch for configuration and logging
	Name() string
}

// Linear is the identity stretch.
type Linear struct{}

func (Linear) Apply(v float64) float64 { return v }
func (Linear) Name() string            { return "linear" }

// Sqrt brightens faint features with a square-root stretch.
type Sqrt struct{}

func (Sqrt) Apply(v float64) float64 { return math.Sqrt(v) }
func (Sqrt) Name() string            { return "sqrt" }

// Log is a logarithmic stretch y = log(scale*v + 1) / log(scale + 1).
type Log struct {
	// Scale controls the strength of the stretch; 0 means 1000
	Scale float64
}

func (l Log) Apply(v float64) float64 {
	scale := l.Scale
	if scale <= 0 {
		scale = 1000
	}
	return math.Log(scale*v+1) / math.Log(scale+1)
}

func (Log) Name() string { return "log" }

// Asinh is the inverse hyperbolic sine stretch
// y = asinh(v/a) / asinh(1/a), linear near zero and logarithmic toward one.
// It is the default stretch for cutout display scaling.
type Asinh struct {
	// Softening is the transition parameter a; 0 means 0.1
	Softening float64
}

func (a Asinh) Apply(v float64) float64 {
	soft := a.Softening
	if soft <= 0 {
		soft = 0.1
	}
	return math.Asinh(v/soft) / math.Asinh(1/soft)
}

func (Asinh) Name() string { return "asinh" }

// ByName returns the stretch registered under the given configuration name,
// or nil if the name is unknown. The empty string selects the default asinh
// stretch.
func ByName(name string) Stretch {
	switch name {
	case "", "asinh":
		return Asinh{}
	case "linear":
		return Linear{}
	case "sqrt":
		return Sqrt{}
	case "log":
		return Log{}
	}
	return nil
}

// ByteScale clips the grid to the display limits, applies the stretch and
// maps the result onto the 0-255 display range. A nil stretch selects the
// default asinh. The input grid is not modified.
func ByteScale(g *models.Grid, limits Limits, st Stretch) (*models.Grid, error) {
	if !(limits.Max > limits.Min) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidLimits, limits.Min, limits.Max)
	}
	if st == nil {
		st = Asinh{}
	}

	span := limits.Max - limits.Min
	out := models.NewGrid(g.Width, g.Height)
	for i, v := range g.Data {
		nv := (v - limits.Min) / span
		if nv < 0 {
			nv = 0
		} else if nv > 1 {
			nv = 1
		}
		out.Data[i] = 255 * st.Apply(nv)
	}
	return out, nil
}

// AutoLimits derives display limits from the data itself using the given
// low and high quantiles (for example 0.01 and 0.99). Degenerate data where
// the two quantiles coincide is rejected.
func AutoLimits(data []float64, loQuantile, hiQuantile float64) (Limits, error) {
	if len(data) == 0 {
		return Limits{}, fmt.Errorf("%w: no data", ErrInvalidLimits)
	}
	if loQuantile < 0 || hiQuantile > 1 || loQuantile >= hiQuantile {
		return Limits{}, fmt.Errorf("%w: quantiles [%g, %g]", ErrInvalidLimits, loQuantile, hiQuantile)
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	lo := stat.Quantile(loQuantile, stat.Empirical, sorted, nil)
	hi := stat.Quantile(hiQuantile, stat.Empirical, sorted, nil)
	if !(hi > lo) {
		return Limits{}, fmt.Errorf("%w: quantiles collapse to [%g, %g]", ErrInvalidLimits, lo, hi)
	}
	return Limits{Min: lo, Max: hi}, nil
}

// ToGray renders a byte-scaled grid (values in 0-255) as an 8-bit grayscale
// image with y increasing downward, suitable for JPEG or PNG output.
func ToGray(g *models.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.At(x, y)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			img.SetGray(x, g.Height-1-y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return img
}
