package stretch

import (
	"errors"
	"math"
	"testing"

	"specfield/internal/models"
)

// TestByteScaleLinearEndpoints verifies that the display limits map onto the
// ends of the byte scale under a linear stretch.
func TestByteScaleLinearEndpoints(t *testing.T) {
	g := models.NewGrid(3, 1)
	g.Data[0] = 10  // == Min
	g.Data[1] = 55  // midpoint
	g.Data[2] = 100 // == Max

	out, err := ByteScale(g, Limits{Min: 10, Max: 100}, Linear{})
	if err != nil {
		t.Fatalf("ByteScale failed: %v", err)
	}

	if out.Data[0] != 0 {
		t.Errorf("Min should map to 0, got %g", out.Data[0])
	}
	if math.Abs(out.Data[1]-127.5) > 1e-9 {
		t.Errorf("Midpoint should map to 127.5, got %g", out.Data[1])
	}
	if out.Data[2] != 255 {
		t.Errorf("Max should map to 255, got %g", out.Data[2])
	}
}

// TestByteScaleClipping verifies that values outside the limits are clipped
// rather than extrapolated.
func TestByteScaleClipping(t *testing.T) {
	g := models.NewGrid(2, 1)
	g.Data[0] = -50
	g.Data[1] = 5000

	out, err := ByteScale(g, Limits{Min: 0, Max: 100}, Linear{})
	if err != nil {
		t.Fatalf("ByteScale failed: %v", err)
	}
	if out.Data[0] != 0 || out.Data[1] != 255 {
		t.Errorf("Expected clipped values 0 and 255, got %g and %g", out.Data[0], out.Data[1])
	}
}

// TestByteScaleInvalidLimits verifies that an empty limit interval is
// rejected with the typed error.
func TestByteScaleInvalidLimits(t *testing.T) {
	g := models.NewGrid(1, 1)
	if _, err := ByteScale(g, Limits{Min: 5, Max: 5}, nil); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("Expected ErrInvalidLimits, got %v", err)
	}
	if _, err := ByteScale(g, Limits{Min: 10, Max: 1}, nil); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("Expected ErrInvalidLimits for inverted limits, got %v", err)
	}
}

// TestStretchesFixedPoints checks that every stretch maps 0 to 0 and 1 to 1
// and is monotonically increasing in between.
func TestStretchesFixedPoints(t *testing.T) {
	stretches := []Stretch{Linear{}, Sqrt{}, Log{}, Asinh{}, Asinh{Softening: 0.5}, Log{Scale: 10}}

	for _, st := range stretches {
		if math.Abs(st.Apply(0)) > 1e-12 {
			t.Errorf("%s: Apply(0) = %g, expected 0", st.Name(), st.Apply(0))
		}
		if math.Abs(st.Apply(1)-1) > 1e-12 {
			t.Errorf("%s: Apply(1) = %g, expected 1", st.Name(), st.Apply(1))
		}

		prev := 0.0
		for v := 0.05; v <= 1.0; v += 0.05 {
			cur := st.Apply(v)
			if cur <= prev {
				t.Errorf("%s: not monotonic at v=%.2f (%g <= %g)", st.Name(), v, cur, prev)
			}
			prev = cur
		}
	}
}

// TestAsinhBrightensFaint verifies the asinh stretch lifts faint values
// above the linear response.
func TestAsinhBrightensFaint(t *testing.T) {
	a := Asinh{}
	if a.Apply(0.1) <= 0.1 {
		t.Errorf("Asinh should brighten faint values, got %g for input 0.1", a.Apply(0.1))
	}
}

// TestByName verifies the configuration-name lookup including the default.
func TestByName(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"", "asinh"},
		{"asinh", "asinh"},
		{"linear", "linear"},
		{"sqrt", "sqrt"},
		{"log", "log"},
	}
	for _, tc := range cases {
		st := ByName(tc.name)
		if st == nil {
			t.Fatalf("ByName(%q) returned nil", tc.name)
		}
		if st.Name() != tc.expected {
			t.Errorf("ByName(%q): expected %q, got %q", tc.name, tc.expected, st.Name())
		}
	}
	if ByName("gamma") != nil {
		t.Error("Unknown stretch name should return nil")
	}
}

// TestAutoLimits verifies quantile-based display limits.
func TestAutoLimits(t *testing.T) {
	data := make([]float64, 101)
	for i := range data {
		data[i] = float64(i) // 0..100
	}

	limits, err := AutoLimits(data, 0.05, 0.95)
	if err != nil {
		t.Fatalf("AutoLimits failed: %v", err)
	}
	if limits.Min < 0 || limits.Min > 10 {
		t.Errorf("Low limit %g outside expected range [0,10]", limits.Min)
	}
	if limits.Max < 90 || limits.Max > 100 {
		t.Errorf("High limit %g outside expected range [90,100]", limits.Max)
	}

	if _, err := AutoLimits(nil, 0.05, 0.95); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("Expected ErrInvalidLimits for empty data, got %v", err)
	}

	flat := []float64{3, 3, 3, 3}
	if _, err := AutoLimits(flat, 0.05, 0.95); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("Expected ErrInvalidLimits for constant data, got %v", err)
	}
}

// TestToGray checks the display orientation flip and value rounding.
func TestToGray(t *testing.T) {
	g := models.NewGrid(2, 2)
	g.Set(0, 0, 0)
	g.Set(1, 0, 255)
	g.Set(0, 1, 100.4)
	g.Set(1, 1, 300) // clips to 255

	img := ToGray(g)

	// Grid row 0 is the bottom of the image.
	if img.GrayAt(0, 1).Y != 0 {
		t.Errorf("Expected 0 at image (0,1), got %d", img.GrayAt(0, 1).Y)
	}
	if img.GrayAt(1, 1).Y != 255 {
		t.Errorf("Expected 255 at image (1,1), got %d", img.GrayAt(1, 1).Y)
	}
	if img.GrayAt(0, 0).Y != 100 {
		t.Errorf("Expected 100 at image (0,0), got %d", img.GrayAt(0, 0).Y)
	}
	if img.GrayAt(1, 0).Y != 255 {
		t.Errorf("Expected clipped 255 at image (1,0), got %d", img.GrayAt(1, 0).Y)
	}
}
