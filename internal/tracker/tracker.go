// Package tracker persists the processed-image map that makes batch runs
// idempotent. The store is a single JSON file keyed by image filename; a
// missing or corrupt file is treated as an empty map, never a fatal error.
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Record is what we remember about one processed image.
type Record struct {
	ProcessedAt     time.Time `json:"processed_at"`
	RecipeTitle     string    `json:"recipe_title"`
	Success         bool      `json:"success"`
	OCRMethod       string    `json:"ocr_method"`
	FailedStage     string    `json:"failed_stage,omitempty"`
	ImagesGenerated bool      `json:"images_generated,omitempty"`
}

// Tracker owns the persisted map. Records are written through to disk on
// every mutation, so a crash mid-batch loses at most the in-flight item.
type Tracker struct {
	path    string
	logger  *slog.Logger
	records map[string]Record
}

// Load reads the tracking file at path. Corrupt or missing files start empty
// with a warning.
func Load(path string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{path: path, logger: logger, records: make(map[string]Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("tracker.load.failed", "path", path, "error", err)
		}
		return t
	}
	if err := json.Unmarshal(data, &t.records); err != nil {
		logger.Warn("tracker.load.corrupt", "path", path, "error", err)
		t.records = make(map[string]Record)
	}
	return t
}

// IsProcessed reports whether id has a successful record.
func (t *Tracker) IsProcessed(id string) bool {
	rec, ok := t.records[id]
	return ok && rec.Success
}

// Get returns the record for id, if any.
func (t *Tracker) Get(id string) (Record, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

// Len returns the number of records.
func (t *Tracker) Len() int { return len(t.records) }

// Record upserts rec under id and persists immediately.
func (t *Tracker) Record(id string, rec Record) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	// preserve the images-generated flag across reprocessing
	if prev, ok := t.records[id]; ok && prev.ImagesGenerated && !rec.ImagesGenerated {
		rec.ImagesGenerated = true
	}
	t.records[id] = rec
	return t.save()
}

// MarkImagesGenerated flags id as having product images, persisting the change.
func (t *Tracker) MarkImagesGenerated(id string) error {
	rec, ok := t.records[id]
	if !ok {
		return fmt.Errorf("tracker: no record for %s", id)
	}
	rec.ImagesGenerated = true
	t.records[id] = rec
	return t.save()
}

// HasImagesGenerated reports whether id already has product images.
func (t *Tracker) HasImagesGenerated(id string) bool {
	rec, ok := t.records[id]
	return ok && rec.ImagesGenerated
}

// save writes the map atomically: temp file in the same directory, then rename.
func (t *Tracker) save() error {
	if t.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(t.records, "", "  ")
	if err != nil {
		return fmt.Errorf("tracker: marshal: %w", err)
	}
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tracker: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tracking-*.json")
	if err != nil {
		return fmt.Errorf("tracker: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("tracker: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("tracker: close: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("tracker: rename: %w", err)
	}
	t.logger.Debug("tracker.saved", "path", t.path, "records", len(t.records))
	return nil
}
