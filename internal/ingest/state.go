package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "ingest_state.json"

// State tracks which dataset files have been ingested, their content hashes
// and the dataset ids each one produced.
type State struct {
	FileHashes  map[string]string   `json:"file_hashes"`
	DatasetIDs  map[string][]string `json:"dataset_ids"`
	LastUpdated time.Time           `json:"last_updated"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		FileHashes: make(map[string]string),
		DatasetIDs: make(map[string][]string),
	}
}

// LoadState reads the state kept in dir. A missing file yields an empty state.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("reading ingest state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding ingest state: %w", err)
	}
	if state.FileHashes == nil {
		state.FileHashes = make(map[string]string)
	}
	if state.DatasetIDs == nil {
		state.DatasetIDs = make(map[string][]string)
	}
	return &state, nil
}

// Save writes the state into dir, creating it if needed.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	s.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}

// IsFileChanged reports whether relPath is new or its content hash differs
// from the recorded one.
func (s *State) IsFileChanged(relPath, contentHash string) bool {
	stored, ok := s.FileHashes[relPath]
	return !ok || stored != contentHash
}

func (s *State) record(relPath, contentHash string, ids []string) {
	s.FileHashes[relPath] = contentHash
	s.DatasetIDs[relPath] = ids
}

func (s *State) forget(relPath string) {
	delete(s.FileHashes, relPath)
	delete(s.DatasetIDs, relPath)
}
