// Package continuum fits a low-order polynomial continuum to the side-bands
// flanking a spectral feature and returns normalized flux and error arrays
// over the full bracketed wavelength range.
package continuum

import (
	"errors"
	"fmt"
	"math"

	"specfield/internal/models"
)

// Rest-frame side-band windows bracketing the Na I D doublet, in Angstroms.
// They are scaled by (1+z) when the caller does not supply observed-frame
// windows of its own.
var (
	restLowBand  = [2]float64{5810, 5865}
	restHighBand = [2]float64{5905, 5960}
)

var (
	// ErrInsufficientData indicates the side-band windows select fewer
	// samples than the polynomial order requires.
	ErrInsufficientData = errors.New("insufficient samples in fit windows")

	// ErrZeroDivisor indicates the fitted continuum evaluates to exactly
	// zero at an output sample in division mode.
	ErrZeroDivisor = errors.New("continuum evaluates to zero")
)

// Options configures a normalization. Every option is explicit; the zero
// value of LowBand/HighBand means "derive the window from the rest-frame
// Na D defaults scaled by (1+z)", and a nil Solver selects the QR-based
// weighted least-squares solver.
type Options struct {
	// FitOrder is the polynomial degree of the continuum model
	FitOrder int

	// LowBand is the observed-frame [low, high] window below the feature
	LowBand [2]float64

	// HighBand is the observed-frame [low, high] window above the feature
	HighBand [2]float64

	// Subtract switches from division to subtraction of the continuum
	Subtract bool

	// Solver performs the weighted polynomial fit
	Solver Solver
}

// DefaultOptions returns the standard configuration: a quadratic continuum,
// redshift-scaled Na D side-bands, division mode, QR solver.
func DefaultOptions() Options {
	return Options{FitOrder: 2}
}

// Result holds the outcome of a normalization over the bracketed wavelength
// range. The input spectrum is never modified; all slices here are freshly
// allocated.
type Result struct {
	// Wave is the output wavelengths, between the low edge of the lower
	// side-band and the high edge of the upper side-band inclusive
	Wave []float64

	// Flux and Err are the original flux and error over the output range
	Flux []float64
	Err  []float64

	// NormFlux and NormErr are the normalized flux and error
	NormFlux []float64
	NormErr  []float64

	// Indices maps each output sample back into the input arrays
	Indices []int

	// Coeffs is the fitted continuum polynomial in ascending powers
	Coeffs []float64

	// FitRMS is the weighted RMS of the fit residuals over the side-bands
	FitRMS float64
}

// Normalize fits a polynomial continuum of degree opts.FitOrder to the
// samples inside the two side-band windows, weighted by the inverse flux
// errors, and divides (or subtracts, in subtract mode) the evaluated
// continuum out of every sample in the bracketed range.
func Normalize(spec models.Spectrum, z float64, opts Options) (*Result, error) {
	n := spec.Len()
	if len(spec.Flux) != n || len(spec.Err) != n {
		return nil, fmt.Errorf("continuum: wave/flux/err lengths differ (%d/%d/%d)",
			n, len(spec.Flux), len(spec.Err))
	}
	if opts.FitOrder < 0 {
		return nil, fmt.Errorf("continuum: negative fit order %d", opts.FitOrder)
	}

	low := opts.LowBand
	if low == [2]float64{} {
		low = scaleBand(restLowBand, z)
	}
	high := opts.HighBand
	if high == [2]float64{} {
		high = scaleBand(restHighBand, z)
	}
	if low[1] < low[0] || high[1] < high[0] {
		return nil, fmt.Errorf("continuum: band bounds out of order: low=%v high=%v", low, high)
	}

	// Fit samples come from the two side-bands; output samples span the
	// whole bracketed range including the gap between them.
	var fitIdx, outIdx []int
	for i, w := range spec.Wave {
		inLow := w >= low[0] && w <= low[1]
		inHigh := w >= high[0] && w <= high[1]
		if inLow || inHigh {
			fitIdx = append(fitIdx, i)
		}
		if w >= low[0] && w <= high[1] {
			outIdx = append(outIdx, i)
		}
	}

	if len(fitIdx) < opts.FitOrder+1 {
		return nil, fmt.Errorf("%w: %d samples for an order-%d fit",
			ErrInsufficientData, len(fitIdx), opts.FitOrder)
	}

	fitWave := make([]float64, len(fitIdx))
	fitFlux := make([]float64, len(fitIdx))
	weights := make([]float64, len(fitIdx))
	for k, i := range fitIdx {
		fitWave[k] = spec.Wave[i]
		fitFlux[k] = spec.Flux[i]
		weights[k] = 1 / spec.Err[i]
	}

	solver := opts.Solver
	if solver == nil {
		solver = QRSolver{}
	}
	coeffs, err := solver.Fit(fitWave, fitFlux, weights, opts.FitOrder)
	if err != nil {
		return nil, fmt.Errorf("continuum fit: %w", err)
	}

	res := &Result{
		Wave:     make([]float64, len(outIdx)),
		Flux:     make([]float64, len(outIdx)),
		Err:      make([]float64, len(outIdx)),
		NormFlux: make([]float64, len(outIdx)),
		NormErr:  make([]float64, len(outIdx)),
		Indices:  outIdx,
		Coeffs:   coeffs,
	}

	for k, i := range outIdx {
		w := spec.Wave[i]
		cont := EvalPoly(coeffs, w)

		res.Wave[k] = w
		res.Flux[k] = spec.Flux[i]
		res.Err[k] = spec.Err[i]

		if opts.Subtract {
			res.NormFlux[k] = spec.Flux[i] - cont
			res.NormErr[k] = spec.Err[i]
		} else {
			if cont == 0 {
				return nil, fmt.Errorf("%w: at wavelength %.3f", ErrZeroDivisor, w)
			}
			res.NormFlux[k] = spec.Flux[i] / cont
			res.NormErr[k] = spec.Err[i] / cont
		}
	}

	// Weighted residual RMS over the side-band samples, a goodness-of-fit
	// figure for the continuum model.
	var sum float64
	for k := range fitIdx {
		r := weights[k] * (EvalPoly(coeffs, fitWave[k]) - fitFlux[k])
		sum += r * r
	}
	res.FitRMS = math.Sqrt(sum / float64(len(fitIdx)))

	return res, nil
}

// EvalPoly evaluates a polynomial with coefficients in ascending powers at x
// using Horner's scheme.
func EvalPoly(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

func scaleBand(rest [2]float64, z float64) [2]float64 {
	return [2]float64{rest[0] * (1 + z), rest[1] * (1 + z)}
}
