package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"straingen/pkg/config"
)

// ManifestFile is the name of the run manifest under the dataset root.
const ManifestFile = "manifest.json"

// ManifestEntry records the provenance of one generated sample.
type ManifestEntry struct {
	// Index is the sample's shared zero-padded index.
	Index int `json:"index"`

	// Stem is the filename stem of the source image/mask pair.
	Stem string `json:"stem"`
}

// Manifest records one generation run: its identity, timing, effective
// configuration, and the provenance of every sample written.
type Manifest struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Samples    int             `json:"samples"`
	Config     *config.Config  `json:"config,omitempty"`
	Entries    []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to manifest.json under root.
func WriteManifest(root string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %v", err)
	}

	path := filepath.Join(root, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %v", err)
	}

	return nil
}

// ReadManifest reads the manifest.json under root.
func ReadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %v", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %v", err)
	}

	return &m, nil
}
