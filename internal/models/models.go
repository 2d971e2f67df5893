package models

// Spectrum represents a 1D observed spectrum as index-aligned sample arrays.
// All three slices must have the same length; wavelengths are expected to be
// strictly increasing but this is not enforced.
type Spectrum struct {
	// Wave is the observed wavelength of each sample in Angstroms
	Wave []float64

	// Flux is the measured flux at each wavelength
	Flux []float64

	// Err is the 1-sigma flux uncertainty at each wavelength
	Err []float64
}

// Len returns the number of samples in the spectrum.
func (s *Spectrum) Len() int {
	return len(s.Wave)
}

// Grid represents a 2D image as float64 intensity samples in row-major order.
// The pixel at (x, y) lives at Data[y*Width+x]; (0, 0) is the lower-left
// corner of the image.
type Grid struct {
	// Data is the intensity samples in row-major order
	Data []float64

	// Width is the number of pixels along the x axis
	Width int

	// Height is the number of pixels along the y axis
	Height int
}

// NewGrid allocates a zero-filled grid with the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the intensity at pixel (x, y). The caller is responsible for
// keeping the coordinates inside the grid.
func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set stores an intensity at pixel (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

// Sub copies out the width x height rectangle whose lower-left pixel is
// (x0, y0). Bounds are not checked here; callers validate them first so that
// out-of-range requests can be reported with context.
func (g *Grid) Sub(x0, y0, width, height int) *Grid {
	out := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, g.At(x0+x, y0+y))
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.Width, g.Height)
	copy(out.Data, g.Data)
	return out
}
