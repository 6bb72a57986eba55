// Package statefile persists the most recent caret sample to a single
// well-known file that external consumers poll.
package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"caret-tracker/src/caret"
)

// Store writes the current-state file. One file, overwritten in place; this
// is not an append log.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Persist serializes the sample with its stable field names and overwrites
// the state file, creating the parent directory on first use.
func (s *Store) Persist(sample caret.Sample) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode sample")
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write state file")
	}
	return nil
}

// Load reads the state file back; used by the diagnostic CLI.
func (s *Store) Load() (caret.Sample, error) {
	var sample caret.Sample

	data, err := os.ReadFile(s.path)
	if err != nil {
		return sample, errors.Wrap(err, "failed to read state file")
	}
	if err := json.Unmarshal(data, &sample); err != nil {
		return sample, errors.Wrap(err, "failed to decode state file")
	}
	return sample, nil
}
