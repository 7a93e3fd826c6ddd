package warp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"straingen/pkg/field"
)

// rampImage builds a rows x cols image whose intensity is a smooth ramp,
// convenient for checking interpolation exactly.
func rampImage(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.Set(y, x, float64(10*x+y))
		}
	}
	return m
}

// TestWarpIdentity verifies that a zero displacement field leaves the image
// unchanged.
func TestWarpIdentity(t *testing.T) {
	img := rampImage(4, 4)
	d := field.NewDisplacement(4, 4)

	ref, deformed, err := Warp(img, d)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}

	if ref != img {
		t.Error("Warp must return the reference image unchanged")
	}
	if !mat.Equal(deformed, img) {
		t.Errorf("zero field deformed the image:\ngot\n%v\nwant\n%v",
			mat.Formatted(deformed), mat.Formatted(img))
	}
}

// TestRemapQuarterPixel checks bilinear interpolation against hand-computed
// values at sub-pixel offsets.
func TestRemapQuarterPixel(t *testing.T) {
	src := mat.NewDense(1, 4, []float64{0, 10, 20, 30})

	tests := []struct {
		fx   float64
		want float64
	}{
		{0, 0},
		{0.25, 2.5},
		{0.5, 5},
		{1.75, 17.5},
		{3, 30},
	}

	for _, tc := range tests {
		mapX := mat.NewDense(1, 4, []float64{tc.fx, tc.fx, tc.fx, tc.fx})
		mapY := mat.NewDense(1, 4, nil)

		got, err := Remap(src, mapX, mapY)
		if err != nil {
			t.Fatalf("Remap failed: %v", err)
		}
		if v := got.At(0, 0); math.Abs(v-tc.want) > 1e-12 {
			t.Errorf("Remap at fx=%v = %v, want %v", tc.fx, v, tc.want)
		}
	}
}

// TestRemapBilinear2D checks a two-dimensional sub-pixel sample weighting
// all four neighbors.
func TestRemapBilinear2D(t *testing.T) {
	src := mat.NewDense(2, 2, []float64{
		0, 10,
		40, 50,
	})
	mapX := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0})
	mapY := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0})

	got, err := Remap(src, mapX, mapY)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}

	// Average of the four neighbors.
	if v := got.At(0, 0); math.Abs(v-25) > 1e-12 {
		t.Errorf("center sample = %v, want 25", v)
	}
}

// TestRemapOutOfBoundsZero verifies that samples outside the source extent
// read as zero.
func TestRemapOutOfBoundsZero(t *testing.T) {
	rows, cols := 4, 8
	src := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			src.Set(y, x, 100)
		}
	}

	// Uniform forward shift of +5 pixels in x: output pixels with x < 5
	// sample outside the image.
	d := field.NewDisplacement(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			d.U.Set(y, x, 5)
		}
	}

	_, deformed, err := Warp(src, d)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			want := 100.0
			if x < 5 {
				want = 0
			}
			if v := deformed.At(y, x); v != want {
				t.Errorf("deformed at (%d,%d) = %v, want %v", y, x, v, want)
			}
		}
	}
}

// TestWarpRoundTrip verifies that warping by a smooth small field and then
// by its negation approximately reconstructs the original. Negation is only
// an approximate inverse, so the check is a bounded interior error.
func TestWarpRoundTrip(t *testing.T) {
	rows, cols := 32, 32
	img := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Set(y, x, 128+100*math.Sin(float64(x)/8)*math.Cos(float64(y)/8))
		}
	}

	// Smooth field with sub-pixel magnitude.
	d := field.NewDisplacement(rows, cols)
	neg := field.NewDisplacement(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			u := 0.5 * math.Sin(float64(x)/10)
			v := 0.5 * math.Cos(float64(y)/10)
			d.U.Set(y, x, u)
			d.V.Set(y, x, v)
			neg.U.Set(y, x, -u)
			neg.V.Set(y, x, -v)
		}
	}

	_, once, err := Warp(img, d)
	if err != nil {
		t.Fatalf("forward warp failed: %v", err)
	}
	_, back, err := Warp(once, neg)
	if err != nil {
		t.Fatalf("backward warp failed: %v", err)
	}

	const margin = 2
	const tolerance = 5.0
	for y := margin; y < rows-margin; y++ {
		for x := margin; x < cols-margin; x++ {
			diff := math.Abs(back.At(y, x) - img.At(y, x))
			if diff > tolerance {
				t.Fatalf("round-trip error %v at (%d,%d) exceeds tolerance %v", diff, y, x, tolerance)
			}
		}
	}
}

// TestRemapDimensionMismatch verifies the map dimension precondition.
func TestRemapDimensionMismatch(t *testing.T) {
	src := mat.NewDense(4, 4, nil)
	mapX := mat.NewDense(3, 4, nil)
	mapY := mat.NewDense(4, 4, nil)

	if _, err := Remap(src, mapX, mapY); err == nil {
		t.Error("expected an error for mismatched map dimensions")
	}
}

// TestWarpDimensionMismatch verifies the field dimension precondition.
func TestWarpDimensionMismatch(t *testing.T) {
	img := mat.NewDense(4, 4, nil)
	d := field.NewDisplacement(4, 5)

	if _, _, err := Warp(img, d); err == nil {
		t.Error("expected an error for mismatched field dimensions")
	}
}
