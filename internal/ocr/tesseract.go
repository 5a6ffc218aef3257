package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/tboyle/recipe-press/internal/common"
)

// TesseractConfig holds tesseract invocation settings.
type TesseractConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
}

// Tesseract extracts text by shelling out to the tesseract binary. It tries a
// ladder of page-segmentation modes and keeps the longest plausible result,
// which helps with unevenly laid-out recipe cards.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
}

// NewTesseract constructs the local OCR strategy.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}}
}

// WithRunner overrides the command runner (tests).
func (t *Tesseract) WithRunner(r Runner) *Tesseract {
	t.runner = r
	return t
}

func (t *Tesseract) Name() string { return "tesseract" }

// psm ladder: uniform block first, then automatic segmentation, then single
// column, then the LSTM engine explicitly.
var tesseractPasses = [][]string{
	{"--psm", "6"},
	{"--psm", "3"},
	{"--psm", "4"},
	{"--psm", "6", "--oem", "1"},
}

func (t *Tesseract) Extract(ctx context.Context, path string) (string, error) {
	best := ""
	var lastErr error
	for i, extra := range tesseractPasses {
		txt, err := t.runOnce(ctx, path, extra)
		if err != nil {
			lastErr = err
			continue
		}
		if len(strings.TrimSpace(txt)) > len(strings.TrimSpace(best)) {
			best = txt
		}
		// the first pass is usually enough when it found real recipe text
		if i == 0 && len(strings.TrimSpace(best)) >= 50 && looksLikeRecipe(best) {
			break
		}
	}
	if strings.TrimSpace(best) == "" {
		if lastErr != nil {
			return "", fmt.Errorf("tesseract: %w", lastErr)
		}
		return "", common.Permanent(fmt.Errorf("tesseract produced no text for %s", path))
	}
	return Normalize(CleanLines(best)), nil
}

func (t *Tesseract) runOnce(ctx context.Context, path string, extra []string) (string, error) {
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, extra...)

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w (%s)", strings.Join(extra, " "), err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
