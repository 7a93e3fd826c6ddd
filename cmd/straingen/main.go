package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"straingen/pkg/config"
	"straingen/pkg/field"
	"straingen/pkg/generator"
)

func main() {
	// Parse command line arguments
	imagesDir := flag.String("images", "", "Directory containing reference images")
	masksDir := flag.String("masks", "", "Directory containing foreground masks (stems must match the images)")
	outputDir := flag.String("out", "", "Dataset root directory to write samples under")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	samplesPerPair := flag.Int("samples-per-pair", 0, "Number of samples to generate per image/mask pair")
	noiseSigma := flag.Float64("noise", -1, "Standard deviation of additive Gaussian noise (0 disables)")
	seed := flag.Uint64("seed", 0, "Random seed for field synthesis and noise")
	visualize := flag.Bool("visualize", true, "Render the diagnostic figure for every sample")
	writeReport := flag.Bool("report", true, "Write the HTML dataset report after the run")
	saveConfig := flag.String("save-config", "", "Write the default configuration to this path and exit")
	flag.Parse()

	// Write a default config file and exit if requested
	if *saveConfig != "" {
		if err := config.CreateDefaultConfigFile(*saveConfig); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *saveConfig)
		return
	}

	// Load configuration, then let explicitly set flags override it
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["images"] {
		cfg.Input.ImagesDir = *imagesDir
	}
	if set["masks"] {
		cfg.Input.MasksDir = *masksDir
	}
	if set["out"] {
		cfg.Output.Dir = *outputDir
	}
	if set["samples-per-pair"] {
		cfg.Output.SamplesPerPair = *samplesPerPair
	}
	if set["noise"] {
		cfg.Noise.Sigma = *noiseSigma
	}
	if set["seed"] {
		cfg.Noise.Seed = *seed
	}
	if set["visualize"] {
		cfg.Output.Visualize = *visualize
	}
	if set["report"] {
		cfg.Output.Report = *writeReport
	}

	// Validate inputs
	if cfg.Input.ImagesDir == "" || cfg.Input.MasksDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("STRAINGEN - SYNTHETIC TRAINING DATA FOR DISPLACEMENT AND STRAIN ESTIMATION")
	fmt.Println("================================")

	// Initialize generation parameters
	params := &generator.Params{
		ImagesDir:      cfg.Input.ImagesDir,
		MasksDir:       cfg.Input.MasksDir,
		OutputDir:      cfg.Output.Dir,
		SamplesPerPair: cfg.Output.SamplesPerPair,
		Synth: field.SynthParams{
			Bumps:           cfg.Fields.Bumps,
			MinWidth:        cfg.Fields.MinWidth,
			MaxWidth:        cfg.Fields.MaxWidth,
			MaxDisplacement: cfg.Fields.MaxDisplacement,
		},
		NoiseSigma: cfg.Noise.Sigma,
		Seed:       cfg.Noise.Seed,
		Visualize:  cfg.Output.Visualize,
		Report:     cfg.Output.Report,
		Config:     cfg,
	}

	// Run the generation pipeline
	gen := generator.New(params)
	fmt.Println("Starting training-set generation...")
	startTime := time.Now()
	if err := gen.Run(); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	elapsed := time.Since(startTime)

	// Display run statistics
	stats := gen.GetStats()
	fmt.Printf("\nGeneration completed successfully in %.2f seconds!\n", elapsed.Seconds())
	fmt.Printf("Dataset written to: %s\n\n", cfg.Output.Dir)

	fmt.Printf("Run statistics:\n")
	fmt.Printf("===============\n")
	fmt.Printf("Image/mask pairs: %d\n", stats.Pairs)
	fmt.Printf("Samples written: %d\n", stats.Samples)
	fmt.Printf("Mean absolute displacement: %.3f px\n", stats.MeanAbsDisplacement)
	fmt.Printf("Max absolute strain: %.4f\n", stats.MaxAbsStrain)

	if cfg.Output.Visualize {
		fmt.Println("\nPer-sample diagnostic figures saved under the visualize/ subdirectory.")
	}
	if cfg.Output.Report {
		fmt.Println("Dataset report saved as report.html under the dataset root.")
	}
}
