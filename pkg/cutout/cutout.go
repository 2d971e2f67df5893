// Package cutout extracts a rectangular sub-image of a wide-field imaging
// dataset around the footprint of a second, narrower instrument field of
// view. The mapping between the two pixel coordinate systems is derived from
// a position angle and a single reference tie-point; in whole-field mode the
// cutout is additionally rotated so its pixel axes align with the target
// field, and intensities are byte-scaled for display unless disabled.
package cutout

import (
	"errors"
	"fmt"
	"math"

	"specfield/internal/models"
	"specfield/pkg/stretch"
	"specfield/pkg/transform"
)

var (
	// ErrOutOfBounds indicates a computed sub-image bound falls outside
	// the source image.
	ErrOutOfBounds = errors.New("sub-image bounds outside source image")

	// ErrInvalidArgument indicates a missing or malformed parameter for
	// the selected extraction mode.
	ErrInvalidArgument = errors.New("invalid extraction argument")
)

// FieldSpec describes the target instrument's field of view.
type FieldSpec struct {
	// Dims is the field width and height in target pixels
	Dims [2]float64

	// PixelScale is the target pixel scale in arcsec per pixel
	PixelScale float64

	// PositionAngle is the field rotation in degrees east of north
	PositionAngle float64
}

// Options configures an extraction. Every option is explicit: a zero
// SourcePixelScale means the default 0.05 arcsec per pixel, a nil Stretch
// means the default asinh, and Limits must be set whenever scaling is not
// skipped.
type Options struct {
	// SourcePixelScale is the source image pixel scale in arcsec/pixel
	SourcePixelScale float64

	// WholeField forces the output to match the target field exactly,
	// rotated into alignment with its pixel axes
	WholeField bool

	// SkipScaling leaves the extracted intensities untouched
	SkipScaling bool

	// WithCorners requests the target field corner coordinates
	WithCorners bool

	// Limits bounds the display scaling
	Limits stretch.Limits

	// Stretch selects the intensity remapping applied during scaling
	Stretch stretch.Stretch
}

// Extract cuts the sub-image of img covering sizeArcsec around the target
// field described by field, fieldRef (a coordinate in target pixels) and
// imageRef (the matching coordinate in source pixels). It returns the
// extracted grid and, when requested, the four field corners expressed in
// the sub-image's own pixel coordinates, counter-clockwise from lower-left.
//
// Output dimensions are always odd in both axes so a unique center pixel
// exists. Sub-pixel rounding residuals are computed but intentionally not
// applied as a registration correction, matching the established behavior
// of this procedure.
func Extract(img *models.Grid, sizeArcsec [2]float64, field FieldSpec, fieldRef, imageRef [2]float64, opts Options) (*models.Grid, [][2]float64, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty source image", ErrInvalidArgument)
	}
	if field.PixelScale <= 0 {
		return nil, nil, fmt.Errorf("%w: target pixel scale %g", ErrInvalidArgument, field.PixelScale)
	}
	if field.Dims[0] <= 0 || field.Dims[1] <= 0 {
		return nil, nil, fmt.Errorf("%w: target dimensions %v", ErrInvalidArgument, field.Dims)
	}

	srcScale := opts.SourcePixelScale
	if srcScale == 0 {
		srcScale = 0.05
	}
	if srcScale < 0 {
		return nil, nil, fmt.Errorf("%w: source pixel scale %g", ErrInvalidArgument, srcScale)
	}
	if !opts.SkipScaling && !(opts.Limits.Max > opts.Limits.Min) {
		return nil, nil, fmt.Errorf("%w: display limits [%g, %g]",
			ErrInvalidArgument, opts.Limits.Min, opts.Limits.Max)
	}
	if !opts.WholeField && (sizeArcsec[0] <= 0 || sizeArcsec[1] <= 0) {
		return nil, nil, fmt.Errorf("%w: sub-image size %v arcsec", ErrInvalidArgument, sizeArcsec)
	}

	rot := transform.NewRotation(field.PositionAngle)
	ratio := field.PixelScale / srcScale

	// Locate the target field's geometric center on the source image: the
	// offset from the reference point to the field center, rotated into
	// the sky frame and converted to source pixels.
	fieldCenter := [2]float64{(field.Dims[0] - 1) / 2, (field.Dims[1] - 1) / 2}
	offset := rot.Apply([2]float64{fieldCenter[0] - fieldRef[0], fieldCenter[1] - fieldRef[1]})
	center := [2]float64{
		imageRef[0] + offset[0]*ratio,
		imageRef[1] + offset[1]*ratio,
	}

	size := sizeArcsec
	var work *models.Grid
	var localCenter [2]float64

	if opts.WholeField {
		// An arbitrary rotation can enlarge the bounding box, so cut an
		// oversized square first and rotate inside it. Its side is twice
		// the larger field extent.
		side := 2 * math.Max(field.Dims[0], field.Dims[1]) * field.PixelScale
		dummy, _ := oddDim(side / srcScale)

		cx, cy := roundPixel(center[0]), roundPixel(center[1])
		half := dummy / 2
		x0, y0 := cx-half, cy-half
		if x0 < 0 || y0 < 0 || x0+dummy > img.Width || y0+dummy > img.Height {
			return nil, nil, fmt.Errorf("%w: dummy region [%d:%d, %d:%d] on %dx%d image",
				ErrOutOfBounds, x0, x0+dummy, y0, y0+dummy, img.Width, img.Height)
		}
		work = img.Sub(x0, y0, dummy, dummy)

		// The field center in the dummy's own frame is its center pixel.
		localCenter = [2]float64{float64(half), float64(half)}

		// Whole-field mode ignores the requested size and matches the
		// target field exactly.
		size = [2]float64{
			field.Dims[0] * field.PixelScale,
			field.Dims[1] * field.PixelScale,
		}
	}

	width, _ := oddDim(size[0] / srcScale)
	height, _ := oddDim(size[1] / srcScale)
	halfW, halfH := width/2, height/2

	var out *models.Grid
	var lowerLeft [2]float64
	var cornerCenter [2]float64

	if opts.WholeField {
		scaled, err := scale(work, opts)
		if err != nil {
			return nil, nil, err
		}

		// Rotate the oversized square back by the position angle about
		// the field center, then crop the field-sized window in the
		// square's own frame.
		rotated := transform.RotateAbout(scaled, -field.PositionAngle, localCenter[0], localCenter[1])

		x0 := int(localCenter[0]) - halfW
		y0 := int(localCenter[1]) - halfH
		if x0 < 0 || y0 < 0 || x0+width > rotated.Width || y0+height > rotated.Height {
			return nil, nil, fmt.Errorf("%w: crop [%d:%d, %d:%d] on %dx%d dummy region",
				ErrOutOfBounds, x0, x0+width, y0, y0+height, rotated.Width, rotated.Height)
		}
		out = rotated.Sub(x0, y0, width, height)
		lowerLeft = [2]float64{float64(x0), float64(y0)}
		cornerCenter = localCenter
	} else {
		cx, cy := roundPixel(center[0]), roundPixel(center[1])
		x0, y0 := cx-halfW, cy-halfH
		if x0 < 0 || y0 < 0 || x0+width > img.Width || y0+height > img.Height {
			return nil, nil, fmt.Errorf("%w: region [%d:%d, %d:%d] on %dx%d image",
				ErrOutOfBounds, x0, x0+width, y0, y0+height, img.Width, img.Height)
		}

		var err error
		out, err = scale(img.Sub(x0, y0, width, height), opts)
		if err != nil {
			return nil, nil, err
		}
		lowerLeft = [2]float64{float64(x0), float64(y0)}
		cornerCenter = center
	}

	var corners [][2]float64
	if opts.WithCorners {
		corners = fieldCorners(field, rot, ratio, cornerCenter, lowerLeft)
	}

	return out, corners, nil
}

// scale applies the display byte-scaling unless it is skipped.
func scale(g *models.Grid, opts Options) (*models.Grid, error) {
	if opts.SkipScaling {
		return g, nil
	}
	scaled, err := stretch.ByteScale(g, opts.Limits, opts.Stretch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return scaled, nil
}

// fieldCorners maps the four corners of the target field rectangle into the
// sub-image's local pixel coordinates, counter-clockwise from lower-left.
func fieldCorners(field FieldSpec, rot transform.Rotation, ratio float64, center, lowerLeft [2]float64) [][2]float64 {
	hw := field.Dims[0] / 2 * ratio
	hh := field.Dims[1] / 2 * ratio

	offsets := [4][2]float64{
		{-hw, -hh},
		{+hw, -hh},
		{+hw, +hh},
		{-hw, +hh},
	}

	corners := make([][2]float64, 4)
	for i, off := range offsets {
		v := rot.Apply(off)
		corners[i] = [2]float64{
			v[0] + center[0] - lowerLeft[0],
			v[1] + center[1] - lowerLeft[1],
		}
	}
	return corners
}

// oddDim rounds a pixel extent to the nearest integer and forces it odd so
// a unique center pixel exists. The fractional rounding residual is
// returned for reference; callers discard it, as no sub-pixel registration
// correction is applied.
func oddDim(px float64) (int, float64) {
	dim := int(math.Round(px))
	residual := px - float64(dim)
	if dim%2 == 0 {
		dim++
	}
	if dim < 1 {
		dim = 1
	}
	return dim, residual
}

// roundPixel rounds a decimal pixel coordinate to its integer pixel. The
// sub-pixel remainder is dropped; see oddDim.
func roundPixel(v float64) int {
	return int(math.Round(v))
}
