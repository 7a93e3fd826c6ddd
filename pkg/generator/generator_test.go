package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"straingen/internal/catalog"
	"straingen/pkg/dataset"
	"straingen/pkg/field"
	"straingen/pkg/imaging"
)

// writeTestPair writes one image/mask pair with the given stem: a gradient
// image and a mask covering the central region.
func writeTestPair(t *testing.T, imagesDir, masksDir, stem string, size int) {
	t.Helper()

	img := mat.NewDense(size, size, nil)
	mask := mat.NewDense(size, size, nil)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(y, x, float64((x*255/(size-1)+y*7)%256))
			if y > size/4 && y < 3*size/4 && x > size/4 && x < 3*size/4 {
				mask.Set(y, x, 255)
			}
		}
	}

	if err := imaging.SavePNG(filepath.Join(imagesDir, stem+".png"), img); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	if err := imaging.SavePNG(filepath.Join(masksDir, stem+".png"), mask); err != nil {
		t.Fatalf("failed to write test mask: %v", err)
	}
}

func testParams(t *testing.T, pairs, samplesPerPair int) *Params {
	t.Helper()

	tmp := t.TempDir()
	imagesDir := filepath.Join(tmp, "images")
	masksDir := filepath.Join(tmp, "masks")
	for _, dir := range []string{imagesDir, masksDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create input dir: %v", err)
		}
	}
	for i := 0; i < pairs; i++ {
		writeTestPair(t, imagesDir, masksDir, fmt.Sprintf("pair_%02d", i), 16)
	}

	return &Params{
		ImagesDir:      imagesDir,
		MasksDir:       masksDir,
		OutputDir:      filepath.Join(tmp, "out"),
		SamplesPerPair: samplesPerPair,
		Synth: field.SynthParams{
			Bumps:           3,
			MinWidth:        2,
			MaxWidth:        6,
			MaxDisplacement: 2,
		},
		NoiseSigma: 2,
		Seed:       1,
		Visualize:  false,
		Report:     true,
	}
}

// TestRunEndToEnd runs the full pipeline on generated inputs and checks
// every artifact the run is supposed to leave behind.
func TestRunEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	params := testParams(t, 2, 2)
	gen := New(params)

	if err := gen.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stats := gen.GetStats()
	if stats.Pairs != 2 {
		t.Errorf("stats.Pairs = %d, want 2", stats.Pairs)
	}
	if stats.Samples != 4 {
		t.Errorf("stats.Samples = %d, want 4", stats.Samples)
	}

	t.Run("SampleFiles", func(t *testing.T) {
		reader := dataset.NewReader(params.OutputDir)
		for i := 0; i < 4; i++ {
			sample, err := reader.ReadSample(i)
			if err != nil {
				t.Fatalf("failed to read sample %d: %v", i, err)
			}
			rows, cols := sample.Reference.Dims()
			if rows != 16 || cols != 16 {
				t.Errorf("sample %d is %dx%d, want 16x16", i, rows, cols)
			}
		}
	})

	t.Run("Manifest", func(t *testing.T) {
		m, err := dataset.ReadManifest(params.OutputDir)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if m.RunID == "" {
			t.Error("manifest has no run id")
		}
		if m.Samples != 4 || len(m.Entries) != 4 {
			t.Errorf("manifest records %d samples and %d entries, want 4 and 4", m.Samples, len(m.Entries))
		}
		for i, e := range m.Entries {
			if e.Index != i {
				t.Errorf("entry %d has index %d", i, e.Index)
			}
		}
	})

	t.Run("Catalog", func(t *testing.T) {
		store, err := catalog.Open(filepath.Join(params.OutputDir, catalog.DatabaseFile))
		if err != nil {
			t.Fatalf("failed to open catalog: %v", err)
		}
		defer store.Close()

		n, err := store.Count()
		if err != nil {
			t.Fatalf("failed to count samples: %v", err)
		}
		if n != 4 {
			t.Errorf("catalog has %d samples, want 4", n)
		}
	})

	t.Run("Report", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(params.OutputDir, "report.html")); err != nil {
			t.Errorf("report missing: %v", err)
		}
	})
}

// TestRunMaskedFieldsAreZeroOutsideMask verifies that background pixels
// carry no displacement in the persisted fields.
func TestRunMaskedFieldsAreZeroOutsideMask(t *testing.T) {
	params := testParams(t, 1, 1)
	params.Report = false

	if err := New(params).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sample, err := dataset.NewReader(params.OutputDir).ReadSample(0)
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}

	// Corners are outside the central mask block.
	for _, corner := range [][2]int{{0, 0}, {0, 15}, {15, 0}, {15, 15}} {
		if v := sample.Disp.U.At(corner[0], corner[1]); v != 0 {
			t.Errorf("U at corner %v = %v, want 0", corner, v)
		}
		if v := sample.Disp.V.At(corner[0], corner[1]); v != 0 {
			t.Errorf("V at corner %v = %v, want 0", corner, v)
		}
	}
}

// TestRunNameMismatchFails verifies that misaligned input directories are a
// fatal precondition violation.
func TestRunNameMismatchFails(t *testing.T) {
	params := testParams(t, 1, 1)

	// Add an extra mask with no matching image.
	orphan := mat.NewDense(16, 16, nil)
	if err := imaging.SavePNG(filepath.Join(params.MasksDir, "zz_orphan.png"), orphan); err != nil {
		t.Fatalf("failed to write orphan mask: %v", err)
	}

	err := New(params).Run()
	if !errors.Is(err, dataset.ErrNameMismatch) {
		t.Errorf("expected ErrNameMismatch, got %v", err)
	}
}

// TestRunDeterministicFields verifies that two runs with the same seed
// write identical displacement fields.
func TestRunDeterministicFields(t *testing.T) {
	read := func(params *Params) *dataset.Sample {
		t.Helper()
		if err := New(params).Run(); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		s, err := dataset.NewReader(params.OutputDir).ReadSample(0)
		if err != nil {
			t.Fatalf("failed to read sample: %v", err)
		}
		return s
	}

	a := testParams(t, 1, 1)
	a.Report = false
	b := testParams(t, 1, 1)
	b.Report = false

	sa := read(a)
	sb := read(b)

	if !mat.Equal(sa.Disp.U, sb.Disp.U) || !mat.Equal(sa.Disp.V, sb.Disp.V) {
		t.Error("same seed produced different displacement fields")
	}
}
