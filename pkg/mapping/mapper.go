// Package mapping joins the enriched metadata records back to the master
// image identity, producing the object-keyed mapping document consumed by
// the report assembler.
package mapping

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/menta2k/scenescan/pkg/metadata"
	"github.com/menta2k/scenescan/pkg/types"
)

// Mapper regenerates the mapping document from the metadata store.
type Mapper struct {
	store          *metadata.Store
	masterImageDir string
	outPath        string
}

// New creates a Mapper reading from store and writing the mapping
// document to outPath. Image paths in the mapping are joined against
// masterImageDir.
func New(store *metadata.Store, masterImageDir, outPath string) *Mapper {
	return &Mapper{store: store, masterImageDir: masterImageDir, outPath: outPath}
}

// GenerateFinalMapping loads the metadata document and produces the
// object-keyed mapping. A missing or malformed document is a structural
// failure: no default empty mapping is fabricated, since that would
// silently end in an empty report downstream.
func (m *Mapper) GenerateFinalMapping() (types.ObjectMapping, error) {
	records, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	mapping := m.mapRecords(records)

	if err := m.write(mapping); err != nil {
		return nil, err
	}
	slog.Info("final mapping written", "path", m.outPath, "entries", len(mapping))
	return mapping, nil
}

// mapRecords builds one entry per distinct object identifier. Identifiers
// are expected unique per run; the first occurrence wins and later
// duplicates are logged, validating the uniqueness precondition instead
// of assuming it.
func (m *Mapper) mapRecords(records []types.ObjectRecord) types.ObjectMapping {
	mapping := make(types.ObjectMapping, len(records))
	for _, rec := range records {
		if _, exists := mapping[rec.ImageID]; exists {
			slog.Warn("duplicate object identifier, keeping first occurrence", "image_id", rec.ImageID)
			continue
		}
		mapping[rec.ImageID] = types.MappingEntry{
			ImagePath:   filepath.Join(m.masterImageDir, rec.ImageID),
			SourceImage: rec.SourceImage,
			Detection:   rec.Detection,
			Texts:       rec.Texts,
			Summary:     rec.Summary,
		}
	}
	return mapping
}

func (m *Mapper) write(mapping types.ObjectMapping) error {
	if err := os.MkdirAll(filepath.Dir(m.outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(mapping, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	if err := os.WriteFile(m.outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mapping document: %w", err)
	}
	return nil
}
