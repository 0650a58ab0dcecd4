// Package metadata persists the shared per-object metadata document the
// pipeline stages read and enrich. The document is an ordered JSON array
// of object records; every write replaces the whole file. Stages run
// strictly sequentially within one invocation, so last-writer-wins is
// safe; two concurrent invocations sharing one document path are
// unsupported and will corrupt it.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/scenescan/pkg/types"
)

// ErrNoDocument is returned when the metadata document does not exist.
// Downstream stages must fail fast on it rather than fabricate an empty
// document, which would mask upstream breakage with an empty report.
var ErrNoDocument = errors.New("metadata document does not exist")

// Store reads and writes the metadata document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for the given document path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the document is present on disk.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load reads the whole document. A missing file yields ErrNoDocument.
func (s *Store) Load() ([]types.ObjectRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, s.path)
		}
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}

	var records []types.ObjectRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed metadata document %s: %w", s.path, err)
	}
	return records, nil
}

// Save writes the whole document, replacing any prior content.
func (s *Store) Save(records []types.ObjectRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Persist an empty array rather than JSON null for zero records.
	if records == nil {
		records = []types.ObjectRecord{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	return nil
}
