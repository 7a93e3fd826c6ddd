package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"straingen/pkg/field"
	"straingen/pkg/imaging"
)

// Subdirectory names under the dataset root. All artifacts of one sample
// share a zero-padded 4-digit index across these directories.
const (
	ImagesDir        = "images"
	DisplacementsDir = "displacements"
	StrainsDir       = "strains"
	VisualizeDir     = "visualize"
)

// Sample bundles all artifacts of one generated training sample.
type Sample struct {
	// Reference is the undeformed image.
	Reference *mat.Dense

	// Deformed is the reference warped by the displacement field.
	Deformed *mat.Dense

	// Disp is the forward displacement field used for warping.
	Disp *field.Displacement

	// Strain is the strain field derived from the displacement field.
	Strain *field.Strain
}

// Writer persists samples under a dataset root directory. The four
// subdirectories are created on construction; creation is idempotent, so a
// Writer can be rooted at an existing dataset to append to it.
type Writer struct {
	root string
}

// NewWriter creates a Writer rooted at root, creating the root and the four
// sample subdirectories if they do not exist.
func NewWriter(root string) (*Writer, error) {
	for _, sub := range []string{ImagesDir, DisplacementsDir, StrainsDir, VisualizeDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create dataset directory: %v", err)
		}
	}

	return &Writer{root: root}, nil
}

// Root returns the dataset root directory.
func (w *Writer) Root() string {
	return w.root
}

// VisualizePath returns the directory that sample visualizations are
// written into.
func (w *Writer) VisualizePath() string {
	return filepath.Join(w.root, VisualizeDir)
}

// WriteSample writes all artifacts of sample s under the given index: the
// two images as 8-bit grayscale PNG, and the two displacement and three
// strain components as NumPy .npy arrays. It returns index+1 so callers can
// thread a monotonically increasing counter across samples without keeping
// it externally.
func (w *Writer) WriteSample(index int, s *Sample) (int, error) {
	name := fmt.Sprintf("%04d", index)

	im1 := filepath.Join(w.root, ImagesDir, name+"_im1.png")
	if err := imaging.SavePNG(im1, s.Reference); err != nil {
		return index, fmt.Errorf("failed to save reference image: %v", err)
	}
	im2 := filepath.Join(w.root, ImagesDir, name+"_im2.png")
	if err := imaging.SavePNG(im2, s.Deformed); err != nil {
		return index, fmt.Errorf("failed to save deformed image: %v", err)
	}

	components := []struct {
		dir    string
		suffix string
		m      *mat.Dense
	}{
		{DisplacementsDir, "_displacement_X.npy", s.Disp.U},
		{DisplacementsDir, "_displacement_Y.npy", s.Disp.V},
		{StrainsDir, "_strain_xx.npy", s.Strain.XX},
		{StrainsDir, "_strain_yy.npy", s.Strain.YY},
		{StrainsDir, "_strain_xy.npy", s.Strain.XY},
	}
	for _, c := range components {
		path := filepath.Join(w.root, c.dir, name+c.suffix)
		if err := writeNPY(path, c.m); err != nil {
			return index, err
		}
	}

	return index + 1, nil
}

// writeNPY serializes m as a NumPy .npy array at path.
func writeNPY(path string, m *mat.Dense) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create array file: %v", err)
	}
	defer file.Close()

	if err := npyio.Write(file, m); err != nil {
		return fmt.Errorf("failed to write array %s: %v", path, err)
	}

	return nil
}

// Reader loads previously written samples back from a dataset root. It is
// the inverse of Writer and is used for verification and reporting.
type Reader struct {
	root string
}

// NewReader creates a Reader over the dataset rooted at root.
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// ReadSample loads all artifacts of the sample at the given index.
func (r *Reader) ReadSample(index int) (*Sample, error) {
	name := fmt.Sprintf("%04d", index)

	ref, err := imaging.LoadGray(filepath.Join(r.root, ImagesDir, name+"_im1.png"))
	if err != nil {
		return nil, err
	}
	def, err := imaging.LoadGray(filepath.Join(r.root, ImagesDir, name+"_im2.png"))
	if err != nil {
		return nil, err
	}

	u, err := readNPY(filepath.Join(r.root, DisplacementsDir, name+"_displacement_X.npy"))
	if err != nil {
		return nil, err
	}
	v, err := readNPY(filepath.Join(r.root, DisplacementsDir, name+"_displacement_Y.npy"))
	if err != nil {
		return nil, err
	}

	xx, err := readNPY(filepath.Join(r.root, StrainsDir, name+"_strain_xx.npy"))
	if err != nil {
		return nil, err
	}
	yy, err := readNPY(filepath.Join(r.root, StrainsDir, name+"_strain_yy.npy"))
	if err != nil {
		return nil, err
	}
	xy, err := readNPY(filepath.Join(r.root, StrainsDir, name+"_strain_xy.npy"))
	if err != nil {
		return nil, err
	}

	return &Sample{
		Reference: ref,
		Deformed:  def,
		Disp:      &field.Displacement{U: u, V: v},
		Strain:    &field.Strain{XX: xx, YY: yy, XY: xy},
	}, nil
}

// readNPY deserializes a NumPy .npy array at path into a matrix.
func readNPY(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open array file: %v", err)
	}
	defer file.Close()

	var m mat.Dense
	if err := npyio.Read(file, &m); err != nil {
		return nil, fmt.Errorf("failed to read array %s: %v", path, err)
	}

	return &m, nil
}
