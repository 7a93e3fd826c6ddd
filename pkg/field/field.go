// Package field holds the displacement and strain field types used across
// the training-set pipeline, together with field synthesis and strain
// derivation.
package field

import (
	"gonum.org/v1/gonum/mat"
)

// Displacement is a forward per-pixel displacement field: U and V hold the
// x and y offsets, in pixels, that each reference pixel moves by. Both
// components share the image's spatial dimensions.
type Displacement struct {
	U *mat.Dense
	V *mat.Dense
}

// NewDisplacement returns a zero displacement field of the given dimensions.
func NewDisplacement(rows, cols int) *Displacement {
	return &Displacement{
		U: mat.NewDense(rows, cols, nil),
		V: mat.NewDense(rows, cols, nil),
	}
}

// Dims returns the spatial dimensions of the field.
func (d *Displacement) Dims() (rows, cols int) {
	return d.U.Dims()
}

// ApplyMask multiplies both components elementwise by mask, so pixels where
// the mask is zero carry no displacement. The mask must share the field's
// dimensions.
func (d *Displacement) ApplyMask(mask *mat.Dense) {
	d.U.MulElem(d.U, mask)
	d.V.MulElem(d.V, mask)
}

// Strain is a per-pixel small-strain tensor field with normal components XX
// and YY and shear component XY.
type Strain struct {
	XX *mat.Dense
	YY *mat.Dense
	XY *mat.Dense
}

// NewStrain returns a zero strain field of the given dimensions.
func NewStrain(rows, cols int) *Strain {
	return &Strain{
		XX: mat.NewDense(rows, cols, nil),
		YY: mat.NewDense(rows, cols, nil),
		XY: mat.NewDense(rows, cols, nil),
	}
}

// Dims returns the spatial dimensions of the field.
func (s *Strain) Dims() (rows, cols int) {
	return s.XX.Dims()
}

// DeriveStrain computes the small-strain tensor field from the displacement
// gradient:
//
//	exx = du/dx
//	eyy = dv/dy
//	exy = (du/dy + dv/dx) / 2
//
// Derivatives use central differences in the interior and one-sided
// differences at the borders.
func DeriveStrain(d *Displacement) *Strain {
	rows, cols := d.Dims()
	s := NewStrain(rows, cols)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			dudx := ddx(d.U, y, x)
			dudy := ddy(d.U, y, x)
			dvdx := ddx(d.V, y, x)
			dvdy := ddy(d.V, y, x)

			s.XX.Set(y, x, dudx)
			s.YY.Set(y, x, dvdy)
			s.XY.Set(y, x, 0.5*(dudy+dvdx))
		}
	}

	return s
}

// ddx approximates the derivative of m along x (columns) at (row, col).
func ddx(m *mat.Dense, row, col int) float64 {
	_, cols := m.Dims()
	switch {
	case cols < 2:
		return 0
	case col == 0:
		return m.At(row, 1) - m.At(row, 0)
	case col == cols-1:
		return m.At(row, cols-1) - m.At(row, cols-2)
	default:
		return (m.At(row, col+1) - m.At(row, col-1)) / 2
	}
}

// ddy approximates the derivative of m along y (rows) at (row, col).
func ddy(m *mat.Dense, row, col int) float64 {
	rows, _ := m.Dims()
	switch {
	case rows < 2:
		return 0
	case row == 0:
		return m.At(1, col) - m.At(0, col)
	case row == rows-1:
		return m.At(rows-1, col) - m.At(rows-2, col)
	default:
		return (m.At(row+1, col) - m.At(row-1, col)) / 2
	}
}
