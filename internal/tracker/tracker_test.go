package tracker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordPersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	tr := Load(path, nil)

	if err := tr.Record("IMG_0001.jpg", Record{RecipeTitle: "Apple Pie", Success: true, OCRMethod: "vision-api"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// fresh load sees the record without any explicit save call
	tr2 := Load(path, nil)
	if !tr2.IsProcessed("IMG_0001.jpg") {
		t.Fatal("record not persisted")
	}
	rec, ok := tr2.Get("IMG_0001.jpg")
	if !ok || rec.RecipeTitle != "Apple Pie" || rec.OCRMethod != "vision-api" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.ProcessedAt.IsZero() {
		t.Error("ProcessedAt not stamped")
	}
}

func TestFailedRecordIsNotProcessed(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "processed.json"), nil)
	_ = tr.Record("bad.jpg", Record{Success: false, FailedStage: "OCR"})
	if tr.IsProcessed("bad.jpg") {
		t.Error("failed record must not count as processed")
	}
	rec, _ := tr.Get("bad.jpg")
	if rec.FailedStage != "OCR" {
		t.Errorf("FailedStage = %q", rec.FailedStage)
	}
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := Load(path, nil)
	if tr.Len() != 0 {
		t.Errorf("len = %d, want 0", tr.Len())
	}
	// and it is writable again afterward
	if err := tr.Record("a.jpg", Record{Success: true}); err != nil {
		t.Fatalf("Record after corrupt load failed: %v", err)
	}
}

func TestMissingFileTreatedAsEmpty(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	if tr.Len() != 0 {
		t.Errorf("len = %d, want 0", tr.Len())
	}
}

func TestReprocessOverwritesButKeepsImagesFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	tr := Load(path, nil)
	_ = tr.Record("a.jpg", Record{RecipeTitle: "v1", Success: true})
	if err := tr.MarkImagesGenerated("a.jpg"); err != nil {
		t.Fatalf("MarkImagesGenerated failed: %v", err)
	}

	_ = tr.Record("a.jpg", Record{RecipeTitle: "v2", Success: true})
	rec, _ := tr.Get("a.jpg")
	if rec.RecipeTitle != "v2" {
		t.Errorf("title = %q, want v2", rec.RecipeTitle)
	}
	if !rec.ImagesGenerated {
		t.Error("images flag lost on reprocess")
	}
	if !tr.HasImagesGenerated("a.jpg") {
		t.Error("HasImagesGenerated = false")
	}
}

func TestMarkImagesGeneratedUnknownID(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "processed.json"), nil)
	if err := tr.MarkImagesGenerated("nope.jpg"); err == nil {
		t.Error("expected error for unknown id")
	}
}
