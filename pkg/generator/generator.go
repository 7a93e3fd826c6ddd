// Package generator orchestrates the training-set pipeline: it pairs input
// images with masks, synthesizes displacement fields, warps, adds noise,
// and persists every sample together with the run manifest, catalog, and
// report.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"straingen/internal/catalog"
	"straingen/pkg/config"
	"straingen/pkg/dataset"
	"straingen/pkg/field"
	"straingen/pkg/imaging"
	"straingen/pkg/report"
	"straingen/pkg/visualization"
	"straingen/pkg/warp"
)

// Params holds the generation parameters. They control the input and
// output locations and the per-sample processing steps.
type Params struct {
	// ImagesDir is the directory containing the reference images.
	ImagesDir string

	// MasksDir is the directory containing the foreground masks. Its
	// sorted entries must correspond 1:1 by filename stem with ImagesDir.
	MasksDir string

	// OutputDir is the dataset root that samples are written under.
	OutputDir string

	// SamplesPerPair is how many samples to generate from each image/mask
	// pair, each with an independently synthesized displacement field.
	SamplesPerPair int

	// Synth configures displacement-field synthesis.
	Synth field.SynthParams

	// NoiseSigma is the standard deviation of the additive Gaussian noise.
	// Zero disables noise injection.
	NoiseSigma float64

	// Seed seeds field synthesis and noise injection. Runs with the same
	// seed and inputs produce identical datasets.
	Seed uint64

	// Visualize controls whether the eight-panel diagnostic figure is
	// rendered for every sample.
	Visualize bool

	// Report controls whether the HTML dataset report is written after the
	// run.
	Report bool

	// Config, when set, is echoed into the run manifest.
	Config *config.Config
}

// Stats summarizes a completed run.
type Stats struct {
	// Pairs is the number of image/mask pairs consumed.
	Pairs int

	// Samples is the number of samples written.
	Samples int

	// MeanAbsDisplacement is the mean absolute displacement across all
	// samples and both components, in pixels.
	MeanAbsDisplacement float64

	// MaxAbsStrain is the largest absolute strain component value seen in
	// any sample.
	MaxAbsStrain float64
}

// Generator runs the training-set pipeline for one dataset.
type Generator struct {
	params *Params
	stats  Stats
}

// New creates a generator with the provided parameters.
func New(params *Params) *Generator {
	return &Generator{params: params}
}

// GetStats returns the statistics of the last completed run.
func (g *Generator) GetStats() Stats {
	return g.stats
}

// Run executes the full pipeline: gather and validate the input pairs,
// then for each pair synthesize fields, warp, add noise, and persist the
// sample; finally write the manifest, catalog, and optional report.
func (g *Generator) Run() error {
	startedAt := time.Now()
	runID := uuid.New().String()

	// Step 1: Gather and validate input paths
	fmt.Println("Step 1: Gathering image and mask paths...")
	imagePaths, err := dataset.GatherPaths(g.params.ImagesDir)
	if err != nil {
		return fmt.Errorf("failed to gather image paths: %v", err)
	}
	maskPaths, err := dataset.GatherPaths(g.params.MasksDir)
	if err != nil {
		return fmt.Errorf("failed to gather mask paths: %v", err)
	}
	if err := dataset.CheckNames(imagePaths, maskPaths); err != nil {
		return err
	}
	fmt.Printf("Found %d image/mask pairs\n", len(imagePaths))

	// Step 2: Prepare the output dataset
	fmt.Println("Step 2: Preparing output directories...")
	writer, err := dataset.NewWriter(g.params.OutputDir)
	if err != nil {
		return err
	}

	store, err := catalog.Open(filepath.Join(g.params.OutputDir, catalog.DatabaseFile))
	if err != nil {
		return err
	}
	defer store.Close()

	// Step 3: Generate samples
	fmt.Println("Step 3: Generating samples...")
	noiseSrc := rand.NewPCG(g.params.Seed, g.params.Seed+1)
	totalSamples := len(imagePaths) * g.params.SamplesPerPair

	var entries []dataset.ManifestEntry
	var displacementSum float64
	index := 0

	for i := range imagePaths {
		img, mask, err := imaging.LoadImageAndMask(imagePaths[i], maskPaths[i])
		if err != nil {
			return err
		}
		rows, cols := img.Dims()

		for k := 0; k < g.params.SamplesPerPair; k++ {
			// One synthesizer per sample keeps fields reproducible
			// regardless of processing order.
			synth := field.NewSynthesizer(g.params.Synth, g.params.Seed+uint64(index))
			disp := synth.Synthesize(rows, cols)
			disp.ApplyMask(mask)

			strain := field.DeriveStrain(disp)

			ref, deformed, err := warp.Warp(img, disp)
			if err != nil {
				return fmt.Errorf("failed to warp %s: %v", imagePaths[i], err)
			}

			if g.params.NoiseSigma > 0 {
				ref = imaging.AddNoise(ref, g.params.NoiseSigma, noiseSrc)
				deformed = imaging.AddNoise(deformed, g.params.NoiseSigma, noiseSrc)
			}

			sample := &dataset.Sample{
				Reference: ref,
				Deformed:  deformed,
				Disp:      disp,
				Strain:    strain,
			}

			next, err := writer.WriteSample(index, sample)
			if err != nil {
				return err
			}

			if g.params.Visualize {
				if err := visualization.SaveSample(writer.VisualizePath(), index, ref, deformed, disp, strain); err != nil {
					return fmt.Errorf("failed to visualize sample %d: %v", index, err)
				}
			}

			meanAbsU := meanAbs(disp.U)
			meanAbsV := meanAbs(disp.V)
			maxStrain := maxAbsStrain(strain)

			if err := store.Insert(&catalog.Sample{
				Index:        index,
				RunID:        runID,
				Stem:         dataset.Stem(imagePaths[i]),
				NoiseSigma:   g.params.NoiseSigma,
				MeanAbsU:     meanAbsU,
				MeanAbsV:     meanAbsV,
				MaxAbsStrain: maxStrain,
			}); err != nil {
				return err
			}

			entries = append(entries, dataset.ManifestEntry{
				Index: index,
				Stem:  dataset.Stem(imagePaths[i]),
			})

			displacementSum += (meanAbsU + meanAbsV) / 2
			if maxStrain > g.stats.MaxAbsStrain {
				g.stats.MaxAbsStrain = maxStrain
			}

			index = next
			fmt.Printf("\rGenerating samples: %d/%d complete", index, totalSamples)
		}
	}
	fmt.Println()

	// Step 4: Write the run manifest
	fmt.Println("Step 4: Writing run manifest...")
	manifest := &dataset.Manifest{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Samples:    index,
		Config:     g.params.Config,
		Entries:    entries,
	}
	if err := dataset.WriteManifest(g.params.OutputDir, manifest); err != nil {
		return err
	}

	// Step 5: Render the dataset report
	if g.params.Report {
		fmt.Println("Step 5: Rendering dataset report...")
		samples, err := store.List()
		if err != nil {
			return err
		}
		if err := report.Write(filepath.Join(g.params.OutputDir, report.FileName), samples); err != nil {
			return err
		}
	}

	g.stats.Pairs = len(imagePaths)
	g.stats.Samples = index
	if index > 0 {
		g.stats.MeanAbsDisplacement = displacementSum / float64(index)
	}

	return nil
}

// meanAbs returns the mean absolute value of a matrix.
func meanAbs(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	abs := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			abs = append(abs, math.Abs(m.At(y, x)))
		}
	}
	return stat.Mean(abs, nil)
}

// maxAbsStrain returns the largest absolute value across the three strain
// components.
func maxAbsStrain(s *field.Strain) float64 {
	max := 0.0
	for _, m := range []*mat.Dense{s.XX, s.YY, s.XY} {
		if v := math.Abs(mat.Min(m)); v > max {
			max = v
		}
		if v := math.Abs(mat.Max(m)); v > max {
			max = v
		}
	}
	return max
}
