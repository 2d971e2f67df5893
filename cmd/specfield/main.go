package main

import (
	"flag"
	"fmt"
	"image/jpeg"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"specfield/internal/models"
	"specfield/pkg/config"
	"specfield/pkg/continuum"
	"specfield/pkg/cutout"
	"specfield/pkg/stretch"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "specfield.yaml", "Path to YAML configuration")
	redshift := flag.Float64("z", 0.02, "Redshift of the demo spectrum")
	positionAngle := flag.Float64("pa", 30.0, "Position angle of the demo field in degrees east of north")
	subtract := flag.Bool("subtract", false, "Subtract the continuum instead of dividing")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("SPECFIELD: CONTINUUM NORMALIZATION AND FIELD CUTOUT DEMO")
	fmt.Println("================================")

	start := time.Now()

	runContinuum(cfg, *redshift, *subtract)
	runCutout(cfg, *positionAngle)

	fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(start).Seconds())
}

// runContinuum synthesizes a spectrum with Na D absorption on a sloped
// continuum and normalizes it.
func runContinuum(cfg *config.Config, z float64, subtract bool) {
	fmt.Printf("\nNormalizing synthetic spectrum at z=%.4f...\n", z)

	spec := syntheticSpectrum(z)

	opts := continuum.Options{
		FitOrder: cfg.Continuum.FitOrder,
		LowBand:  scaleBand(cfg.Continuum.RestLowBand, z),
		HighBand: scaleBand(cfg.Continuum.RestHighBand, z),
		Subtract: subtract || cfg.Continuum.Subtract,
	}

	res, err := continuum.Normalize(spec, z, opts)
	if err != nil {
		log.Fatalf("Continuum normalization failed: %v", err)
	}

	mode := "division"
	if opts.Subtract {
		mode = "subtraction"
	}
	fmt.Printf("- %d samples in the bracketed range (input indices %d..%d)\n",
		len(res.Wave), res.Indices[0], res.Indices[len(res.Indices)-1])
	fmt.Printf("- continuum coefficients: %v\n", res.Coeffs)
	fmt.Printf("- weighted fit RMS: %.4f\n", res.FitRMS)
	fmt.Printf("- %s mode, mean normalized flux: %.4f\n", mode, mean(res.NormFlux))
}

// runCutout synthesizes a star field and extracts both a plain and a
// whole-field cutout, writing byte-scaled previews.
func runCutout(cfg *config.Config, pa float64) {
	fmt.Printf("\nExtracting field cutouts at pa=%.1f deg...\n", pa)

	img := syntheticField(401, 401)

	field := cutout.FieldSpec{
		Dims:          [2]float64{32, 32},
		PixelScale:    0.2,
		PositionAngle: pa,
	}
	fieldRef := [2]float64{(field.Dims[0] - 1) / 2, (field.Dims[1] - 1) / 2}
	imageRef := [2]float64{200, 200}

	st := stretch.ByName(cfg.Cutout.Stretch)
	if st == nil {
		log.Fatalf("Unknown stretch %q in config", cfg.Cutout.Stretch)
	}
	if asinh, ok := st.(stretch.Asinh); ok {
		asinh.Softening = cfg.Cutout.AsinhSoftening
		st = asinh
	}

	limits, err := stretch.AutoLimits(img.Data, 0.01, 0.999)
	if err != nil {
		limits = stretch.Limits{Min: cfg.Cutout.ScaleMin, Max: cfg.Cutout.ScaleMax}
	}

	opts := cutout.Options{
		SourcePixelScale: cfg.Cutout.SourcePixelScale,
		Limits:           limits,
		Stretch:          st,
		WithCorners:      true,
	}

	plain, corners, err := cutout.Extract(img, [2]float64{8, 8}, field, fieldRef, imageRef, opts)
	if err != nil {
		log.Fatalf("Cutout extraction failed: %v", err)
	}
	fmt.Printf("- plain cutout: %dx%d pixels\n", plain.Width, plain.Height)
	fmt.Printf("- field corners in cutout coordinates:\n")
	for i, c := range corners {
		fmt.Printf("    corner %d: (%.2f, %.2f)\n", i, c[0], c[1])
	}

	opts.WholeField = true
	opts.WithCorners = false
	whole, _, err := cutout.Extract(img, [2]float64{0, 0}, field, fieldRef, imageRef, opts)
	if err != nil {
		log.Fatalf("Whole-field extraction failed: %v", err)
	}
	fmt.Printf("- whole-field cutout: %dx%d pixels, rotated into field alignment\n",
		whole.Width, whole.Height)

	if err := savePreview(plain, filepath.Join(cfg.Output.PreviewDir, "cutout_plain.jpg")); err != nil {
		log.Printf("Warning: failed to save plain preview: %v", err)
	}
	if err := savePreview(whole, filepath.Join(cfg.Output.PreviewDir, "cutout_wholefield.jpg")); err != nil {
		log.Printf("Warning: failed to save whole-field preview: %v", err)
	}
	if cfg.Output.Verbose {
		fmt.Printf("- previews saved to %s\n", cfg.Output.PreviewDir)
	}
}

// syntheticSpectrum builds a sloped continuum with Gaussian Na D absorption
// lines redshifted by (1+z).
func syntheticSpectrum(z float64) models.Spectrum {
	scale := 1 + z
	var spec models.Spectrum
	for w := 5700.0; w <= 6050.0; w += 1.0 {
		obs := w * scale
		flux := 10 + 0.002*(obs-5800)
		// The doublet components at their redshifted positions.
		flux -= 3.0 * math.Exp(-0.5*math.Pow((obs-5890*scale)/2.5, 2))
		flux -= 2.4 * math.Exp(-0.5*math.Pow((obs-5896*scale)/2.5, 2))

		spec.Wave = append(spec.Wave, obs)
		spec.Flux = append(spec.Flux, flux)
		spec.Err = append(spec.Err, 0.05*flux)
	}
	return spec
}

// syntheticField builds a star field with Gaussian point sources on a flat
// background.
func syntheticField(width, height int) *models.Grid {
	g := models.NewGrid(width, height)
	for i := range g.Data {
		g.Data[i] = 0.01
	}

	stars := []struct {
		x, y, amp, sigma float64
	}{
		{200, 200, 5.0, 2.0},
		{180, 215, 2.5, 1.5},
		{230, 185, 1.2, 1.8},
		{140, 260, 3.1, 2.2},
		{260, 240, 0.8, 1.2},
	}
	for _, s := range stars {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r2 := math.Pow(float64(x)-s.x, 2) + math.Pow(float64(y)-s.y, 2)
				g.Data[y*width+x] += s.amp * math.Exp(-r2/(2*s.sigma*s.sigma))
			}
		}
	}
	return g
}

// savePreview writes a byte-scaled grid as a JPEG image.
func savePreview(g *models.Grid, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, stretch.ToGray(g), &jpeg.Options{Quality: 90})
}

func scaleBand(rest [2]float64, z float64) [2]float64 {
	return [2]float64{rest[0] * (1 + z), rest[1] * (1 + z)}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
