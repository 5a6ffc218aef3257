package images

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tboyle/recipe-press/internal/ingest"
	"github.com/tboyle/recipe-press/internal/tracker"
)

type fakeGen struct {
	prompts []string
	paths   []string
	err     error
}

func (f *fakeGen) GenerateImage(ctx context.Context, prompt, outPath, size string) error {
	if f.err != nil {
		return f.err
	}
	f.prompts = append(f.prompts, prompt)
	f.paths = append(f.paths, outPath)
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

type fakeProgress struct {
	records map[string]tracker.Record
	images  map[string]bool
}

func (f *fakeProgress) Get(id string) (tracker.Record, bool) {
	r, ok := f.records[id]
	return r, ok
}

func (f *fakeProgress) HasImagesGenerated(id string) bool { return f.images[id] }

func (f *fakeProgress) MarkImagesGenerated(id string) error {
	if f.images == nil {
		f.images = map[string]bool{}
	}
	f.images[id] = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// product folder with the original-copy marker and a Recipe.txt
func makeProduct(t *testing.T, base, folder, imageName, title string) string {
	t.Helper()
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "original-"+imageName), []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Recipe.txt"), []byte(title+"\n====\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunGeneratesPair(t *testing.T) {
	base := t.TempDir()
	dir := makeProduct(t, base, "sugar-cookies-abc123", "card-001.jpg", "Sugar Cookies")

	gen := &fakeGen{}
	progress := &fakeProgress{records: map[string]tracker.Record{
		"card-001.jpg": {Success: true, RecipeTitle: "Sugar Cookies"},
	}}
	s := NewService(base, gen, progress, testLogger())

	res := s.Run(context.Background(), []ingest.ImageJob{{Name: "card-001.jpg"}})
	if res.Generated != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	for _, name := range []string{MainImageName, ServedImageName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !progress.images["card-001.jpg"] {
		t.Error("tracker not marked")
	}
	for _, p := range gen.prompts {
		if !strings.Contains(p, "Sugar Cookies") {
			t.Errorf("prompt lacks title: %q", p)
		}
	}
}

func TestRunSkipsAlreadyGenerated(t *testing.T) {
	base := t.TempDir()
	makeProduct(t, base, "pie-x", "card-002.jpg", "Apple Pie")

	gen := &fakeGen{}
	progress := &fakeProgress{
		records: map[string]tracker.Record{"card-002.jpg": {Success: true}},
		images:  map[string]bool{"card-002.jpg": true},
	}
	s := NewService(base, gen, progress, testLogger())

	res := s.Run(context.Background(), []ingest.ImageJob{{Name: "card-002.jpg"}})
	if res.Skipped != 1 || res.Generated != 0 || len(gen.prompts) != 0 {
		t.Errorf("result = %+v, prompts = %v", res, gen.prompts)
	}
}

func TestRunIgnoresFailedItems(t *testing.T) {
	base := t.TempDir()
	gen := &fakeGen{}
	progress := &fakeProgress{records: map[string]tracker.Record{
		"failed.jpg": {Success: false, FailedStage: "OCR"},
	}}
	s := NewService(base, gen, progress, testLogger())

	res := s.Run(context.Background(), []ingest.ImageJob{
		{Name: "failed.jpg"},
		{Name: "never-processed.jpg"},
	})
	if res.Eligible != 0 || res.Generated != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	base := t.TempDir()
	makeProduct(t, base, "pie-x", "a.jpg", "Apple Pie")
	makeProduct(t, base, "cake-y", "b.jpg", "Carrot Cake")

	gen := &fakeGen{err: errors.New("api down")}
	progress := &fakeProgress{records: map[string]tracker.Record{
		"a.jpg": {Success: true, RecipeTitle: "Apple Pie"},
		"b.jpg": {Success: true, RecipeTitle: "Carrot Cake"},
	}}
	s := NewService(base, gen, progress, testLogger())

	res := s.Run(context.Background(), []ingest.ImageJob{{Name: "a.jpg"}, {Name: "b.jpg"}})
	if res.Failed != 2 || len(res.FailedIDs) != 2 {
		t.Errorf("result = %+v", res)
	}
	if progress.images["a.jpg"] || progress.images["b.jpg"] {
		t.Error("failed items must not be marked generated")
	}
}

func TestRunMissingProductFolder(t *testing.T) {
	base := t.TempDir()
	gen := &fakeGen{}
	progress := &fakeProgress{records: map[string]tracker.Record{
		"orphan.jpg": {Success: true, RecipeTitle: "Lost Recipe"},
	}}
	s := NewService(base, gen, progress, testLogger())

	res := s.Run(context.Background(), []ingest.ImageJob{{Name: "orphan.jpg"}})
	if res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
}
