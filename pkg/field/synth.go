package field

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SynthParams configures random displacement-field synthesis.
type SynthParams struct {
	// Bumps is the number of Gaussian bumps summed into each field.
	Bumps int

	// MinWidth and MaxWidth bound the standard deviation, in pixels, of
	// each bump.
	MinWidth float64
	MaxWidth float64

	// MaxDisplacement bounds the amplitude of each bump, in pixels.
	// Per-component amplitudes are drawn uniformly from
	// [-MaxDisplacement, MaxDisplacement].
	MaxDisplacement float64
}

// Synthesizer produces smooth random displacement fields as sums of
// Gaussian bumps. The same seed yields the same sequence of fields.
type Synthesizer struct {
	params SynthParams
	src    rand.Source
}

// NewSynthesizer creates a synthesizer with the given parameters and seed.
func NewSynthesizer(params SynthParams, seed uint64) *Synthesizer {
	return &Synthesizer{
		params: params,
		src:    rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Synthesize draws a smooth random forward displacement field of the given
// dimensions. Each of the configured bumps has a uniform-random center
// inside the grid, a width in [MinWidth, MaxWidth], and independent x and y
// amplitudes in [-MaxDisplacement, MaxDisplacement].
func (s *Synthesizer) Synthesize(rows, cols int) *Displacement {
	d := NewDisplacement(rows, cols)

	centerX := distuv.Uniform{Min: 0, Max: float64(cols), Src: s.src}
	centerY := distuv.Uniform{Min: 0, Max: float64(rows), Src: s.src}
	width := distuv.Uniform{Min: s.params.MinWidth, Max: s.params.MaxWidth, Src: s.src}
	amplitude := distuv.Uniform{Min: -s.params.MaxDisplacement, Max: s.params.MaxDisplacement, Src: s.src}

	for b := 0; b < s.params.Bumps; b++ {
		cx := centerX.Rand()
		cy := centerY.Rand()
		w := width.Rand()
		ax := amplitude.Rand()
		ay := amplitude.Rand()

		twoW2 := 2 * w * w
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				dx := float64(x) - cx
				dy := float64(y) - cy
				g := math.Exp(-(dx*dx + dy*dy) / twoW2)

				d.U.Set(y, x, d.U.At(y, x)+ax*g)
				d.V.Set(y, x, d.V.At(y, x)+ay*g)
			}
		}
	}

	return d
}
