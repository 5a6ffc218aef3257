// Package ocr extracts raw text from scanned recipe card images. Two
// strategies exist: the vision API (remote, better on handwriting) and local
// tesseract. The extractor tries them in a configured order and reports which
// one produced the text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/constants"
	"github.com/tboyle/recipe-press/internal/common"
)

// Strategy is one way of turning an image into text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string
	Method   string // name of the strategy that produced the text
	Duration time.Duration
	Warnings []string // per-strategy failures that were recovered from
}

// Extractor tries an ordered list of strategies until one yields text.
type Extractor struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewExtractor builds an extractor over the given strategy order.
func NewExtractor(logger *slog.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{strategies: strategies, logger: logger}
}

// OrderFor returns tesseract and vision in preference order for method.
// Vision is the default primary; tesseract leads only when asked for.
func OrderFor(method constants.OCRMethod, tesseract, vision Strategy) []Strategy {
	if method == constants.OCRMethodTesseract {
		return []Strategy{tesseract, vision}
	}
	return []Strategy{vision, tesseract}
}

// VisionExtractor is the remote OCR collaborator (the OpenAI client).
type VisionExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// visionStrategy adapts a VisionExtractor into a Strategy.
type visionStrategy struct {
	client VisionExtractor
}

// NewVision wraps the vision API collaborator as an OCR strategy.
func NewVision(client VisionExtractor) Strategy {
	return &visionStrategy{client: client}
}

func (v *visionStrategy) Name() string { return string(constants.OCRMethodVisionAPI) }

func (v *visionStrategy) Extract(ctx context.Context, path string) (string, error) {
	txt, err := v.client.ExtractText(ctx, path)
	if err != nil {
		return "", err
	}
	return Normalize(txt), nil
}

// Extract runs the strategies in order and returns the first non-empty text.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	if !constants.IsImageExt(filepath.Ext(path)) {
		return Result{}, common.Permanent(fmt.Errorf("unsupported extension: %q", filepath.Ext(path)))
	}
	if len(e.strategies) == 0 {
		return Result{}, common.ConfigError("no OCR strategies configured")
	}

	var warnings []string
	for _, s := range e.strategies {
		e.logger.Debug("ocr.extract.start", "method", s.Name(), "path", filepath.Base(path))
		txt, err := s.Extract(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Warnings: warnings}, ctx.Err()
			}
			e.logger.Warn("ocr.extract.strategy_failed", "method", s.Name(), "path", filepath.Base(path), "error", err)
			warnings = append(warnings, s.Name()+": "+err.Error())
			continue
		}
		if strings.TrimSpace(txt) == "" {
			warnings = append(warnings, s.Name()+": empty text")
			continue
		}
		res := Result{
			Text:     txt,
			Method:   s.Name(),
			Duration: time.Since(start),
			Warnings: warnings,
		}
		e.logger.Info("ocr.extract.ok",
			"method", res.Method,
			"path", filepath.Base(path),
			"text_len", len(res.Text),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
		return res, nil
	}
	return Result{Warnings: warnings}, fmt.Errorf("ocr: all strategies failed for %s: %s",
		filepath.Base(path), strings.Join(warnings, "; "))
}
