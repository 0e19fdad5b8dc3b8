package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaguanLabs/vertrans"
)

// ExportFormat represents the JSON structure for store export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []vertrans.Entry  `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportVersion is the format version written by Exporter.
const ExportVersion = "1.0"

// Exporter provides store export functionality.
type Exporter struct {
	store vertrans.TranslationStore
}

// NewExporter creates a new store exporter.
func NewExporter(store vertrans.TranslationStore) *Exporter {
	return &Exporter{store: store}
}

// Export writes the store contents to a writer in JSON format.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) (int, error) {
	lister, ok := e.store.(Lister)
	if !ok {
		return 0, fmt.Errorf("store type %T does not support export", e.store)
	}

	entries, err := lister.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting store entries: %w", err)
	}
	if entries == nil {
		entries = []vertrans.Entry{}
	}

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}

	return len(entries), nil
}

// ExportToFile exports the store to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) (int, error) {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(ctx, f, metadata)
}

// Importer provides store import functionality.
type Importer struct {
	store vertrans.TranslationStore
}

// NewImporter creates a new store importer.
func NewImporter(store vertrans.TranslationStore) *Importer {
	return &Importer{store: store}
}

// Import reads entries from a reader and upserts them into the store.
// Invalid entries are counted as failed and skipped.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, entry := range export.Entries {
		if err := i.store.Upsert(ctx, entry.Key, entry.FieldName, entry.Text); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports entries from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}
