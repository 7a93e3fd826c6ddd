// Package catalog persists per-sample summary records of a generation run
// in a SQLite database under the dataset root, so a dataset can be queried
// and reported on without re-reading its arrays.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DatabaseFile is the name of the catalog database under the dataset root.
const DatabaseFile = "catalog.db"

// Sample is one row of the catalog: summary statistics for one generated
// sample, keyed by the sample's shared index.
type Sample struct {
	Index        int     `json:"index"`
	RunID        string  `json:"run_id"`
	Stem         string  `json:"stem"`
	NoiseSigma   float64 `json:"noise_sigma"`
	MeanAbsU     float64 `json:"mean_abs_u"`
	MeanAbsV     float64 `json:"mean_abs_v"`
	MaxAbsStrain float64 `json:"max_abs_strain"`
	CreatedAtNs  int64   `json:"created_at_ns"`
}

// Store provides persistence for sample records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records one sample. If the sample's CreatedAtNs is zero it is set
// to the current time.
func (s *Store) Insert(sample *Sample) error {
	if sample.CreatedAtNs == 0 {
		sample.CreatedAtNs = time.Now().UnixNano()
	}

	query := `
		INSERT INTO samples (
			sample_index, run_id, stem, noise_sigma,
			mean_abs_u, mean_abs_v, max_abs_strain, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		sample.Index,
		sample.RunID,
		sample.Stem,
		sample.NoiseSigma,
		sample.MeanAbsU,
		sample.MeanAbsV,
		sample.MaxAbsStrain,
		sample.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}

	return nil
}

// Get retrieves the sample record with the given index.
func (s *Store) Get(index int) (*Sample, error) {
	query := `
		SELECT sample_index, run_id, stem, noise_sigma,
		       mean_abs_u, mean_abs_v, max_abs_strain, created_at_ns
		FROM samples
		WHERE sample_index = ?
	`

	var sample Sample
	err := s.db.QueryRow(query, index).Scan(
		&sample.Index,
		&sample.RunID,
		&sample.Stem,
		&sample.NoiseSigma,
		&sample.MeanAbsU,
		&sample.MeanAbsV,
		&sample.MaxAbsStrain,
		&sample.CreatedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sample not found: %d", index)
	}
	if err != nil {
		return nil, fmt.Errorf("get sample: %w", err)
	}

	return &sample, nil
}

// List returns all sample records ordered by index.
func (s *Store) List() ([]Sample, error) {
	query := `
		SELECT sample_index, run_id, stem, noise_sigma,
		       mean_abs_u, mean_abs_v, max_abs_strain, created_at_ns
		FROM samples
		ORDER BY sample_index
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sample Sample
		if err := rows.Scan(
			&sample.Index,
			&sample.RunID,
			&sample.Stem,
			&sample.NoiseSigma,
			&sample.MeanAbsU,
			&sample.MeanAbsV,
			&sample.MaxAbsStrain,
			&sample.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}

	return samples, nil
}

// Count returns the number of sample records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}
