// Package warp deforms images by per-pixel displacement fields using a
// backward sampling map and bilinear resampling.
package warp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"straingen/pkg/field"
)

// Remap resamples src at the per-pixel coordinates given by mapX and mapY:
// output pixel (row, col) takes the bilinearly interpolated value of src at
// (mapX(row, col), mapY(row, col)). Samples falling outside the source
// extent contribute zero. All three matrices must share the same dimensions.
func Remap(src, mapX, mapY *mat.Dense) (*mat.Dense, error) {
	rows, cols := src.Dims()
	if xr, xc := mapX.Dims(); xr != rows || xc != cols {
		return nil, fmt.Errorf("mapX dimensions %dx%d do not match source %dx%d", xr, xc, rows, cols)
	}
	if yr, yc := mapY.Dims(); yr != rows || yc != cols {
		return nil, fmt.Errorf("mapY dimensions %dx%d do not match source %dx%d", yr, yc, rows, cols)
	}

	out := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out.Set(y, x, sampleBilinear(src, mapX.At(y, x), mapY.At(y, x)))
		}
	}

	return out, nil
}

// sampleBilinear interpolates src at the fractional coordinate (fx, fy),
// weighting the four surrounding pixels. Neighbors outside the source extent
// count as zero.
func sampleBilinear(src *mat.Dense, fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	w00 := (1 - tx) * (1 - ty)
	w10 := tx * (1 - ty)
	w01 := (1 - tx) * ty
	w11 := tx * ty

	return w00*pixelAt(src, y0, x0) +
		w10*pixelAt(src, y0, x0+1) +
		w01*pixelAt(src, y0+1, x0) +
		w11*pixelAt(src, y0+1, x0+1)
}

// pixelAt returns the pixel value at (row, col), or zero outside the matrix.
func pixelAt(m *mat.Dense, row, col int) float64 {
	rows, cols := m.Dims()
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0
	}
	return m.At(row, col)
}

// Warp deforms img by the forward displacement field d and returns the
// unchanged reference image alongside the deformed image.
//
// The forward field gives, for each reference pixel, where that pixel moves
// to. Resampling needs the opposite: for each output pixel, where to read
// from. Warp builds that backward map by negating the field and adding the
// identity grid, so output pixel (x, y) samples the reference at
// (x - U(x,y), y - V(x,y)).
//
// Known limitation: negating the forward field is only an approximate
// inversion, valid for locally smooth fields of small magnitude. Large or
// rapidly varying displacements need a true fixed-point inversion, which
// this package does not perform.
func Warp(img *mat.Dense, d *field.Displacement) (ref, deformed *mat.Dense, err error) {
	rows, cols := img.Dims()
	dr, dc := d.Dims()
	if dr != rows || dc != cols {
		return nil, nil, fmt.Errorf("displacement field dimensions %dx%d do not match image %dx%d", dr, dc, rows, cols)
	}

	mapX := mat.NewDense(rows, cols, nil)
	mapY := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mapX.Set(y, x, float64(x)-d.U.At(y, x))
			mapY.Set(y, x, float64(y)-d.V.At(y, x))
		}
	}

	deformed, err = Remap(img, mapX, mapY)
	if err != nil {
		return nil, nil, err
	}

	return img, deformed, nil
}
