// Package imaging provides grayscale image I/O and the pixel-level
// operations shared across the training-set pipeline: decoding images into
// float64 matrices, binarizing masks, injecting Gaussian noise, and encoding
// matrices back to 8-bit grayscale PNG.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDimensionMismatch reports an image/mask pair whose spatial dimensions
// do not agree.
var ErrDimensionMismatch = errors.New("image and mask dimensions do not match")

// LoadGray reads the image at path and returns it as a float64 matrix of
// intensities in [0, 255]. PNG and JPEG inputs are accepted; color inputs
// are reduced to grayscale with the standard luminance conversion.
func LoadGray(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %v", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %v", path, err)
	}

	return FromImage(img), nil
}

// LoadImageAndMask reads an image and its mask as grayscale float64
// matrices and binarizes the mask. The two files must share the same
// spatial dimensions.
func LoadImageAndMask(imagePath, maskPath string) (img, mask *mat.Dense, err error) {
	img, err = LoadGray(imagePath)
	if err != nil {
		return nil, nil, err
	}

	mask, err = LoadGray(maskPath)
	if err != nil {
		return nil, nil, err
	}

	ir, ic := img.Dims()
	mr, mc := mask.Dims()
	if ir != mr || ic != mc {
		return nil, nil, fmt.Errorf("%w: image %s is %dx%d, mask %s is %dx%d",
			ErrDimensionMismatch, imagePath, ir, ic, maskPath, mr, mc)
	}

	return img, Binarize(mask), nil
}

// FromImage converts an image to a float64 matrix of grayscale intensities
// in [0, 255]. Row i of the matrix is scanline i of the image.
func FromImage(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	m := mat.NewDense(height, width, nil)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			m.Set(y, x, float64(g.Y))
		}
	}

	return m
}

// ToImage converts a float64 matrix back to an 8-bit grayscale image.
// Values are rounded to the nearest integer and clamped to [0, 255].
func ToImage(m *mat.Dense) *image.Gray {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := math.Round(m.At(y, x))
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}

	return img
}

// Binarize returns a strict {0,1} copy of m: 1 where the input is positive,
// 0 everywhere else.
func Binarize(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if m.At(y, x) > 0 {
				out.Set(y, x, 1)
			}
		}
	}

	return out
}

// AddNoise returns a copy of m with independent zero-mean Gaussian noise of
// the given standard deviation added to every pixel, clipped to [0, 255].
// The realization is deterministic iff src is seeded by the caller. A sigma
// of zero or less returns an unmodified copy.
func AddNoise(m *mat.Dense, sigma float64, src rand.Source) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Copy(m)

	if sigma <= 0 {
		return out
	}

	normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := out.At(y, x) + normal.Rand()
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Set(y, x, v)
		}
	}

	return out
}

// SavePNG encodes m as an 8-bit grayscale PNG at path.
func SavePNG(path string, m *mat.Dense) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, ToImage(m)); err != nil {
		return fmt.Errorf("failed to encode image: %v", err)
	}

	return nil
}
