// Package pipeline runs one image through the full processing chain: OCR,
// structured parsing, nutrition resolution, content generation, rendering,
// and tracking. Only OCR, rendering, and the tracking write can fail an item;
// parsing and nutrition degrade to placeholders and warnings.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tboyle/recipe-press/constants"
	"github.com/tboyle/recipe-press/internal/content"
	"github.com/tboyle/recipe-press/internal/ingest"
	"github.com/tboyle/recipe-press/internal/ocr"
	"github.com/tboyle/recipe-press/internal/recipe"
	"github.com/tboyle/recipe-press/internal/render"
	"github.com/tboyle/recipe-press/internal/tracker"
)

// Extractor yields raw text from an image.
type Extractor interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

// Parser builds a structured draft from OCR text.
type Parser interface {
	Parse(ctx context.Context, ocrText string) (*recipe.Draft, error)
}

// NutritionResolver fills the draft's nutrition label in place.
type NutritionResolver interface {
	Resolve(ctx context.Context, d *recipe.Draft)
}

// Estimator fills missing servings and times.
type Estimator func(ctx context.Context, d *recipe.Draft)

// ContentGenerator produces the listing copy.
type ContentGenerator interface {
	Generate(ctx context.Context, d *recipe.Draft) content.Listing
}

// Renderer writes the product folder.
type Renderer interface {
	Render(d *recipe.Draft, l content.Listing, imagePath string) (*render.Product, error)
}

// Recorder persists per-item outcomes.
type Recorder interface {
	Record(id string, rec tracker.Record) error
}

// Result is the outcome of processing one image.
type Result struct {
	Job         ingest.ImageJob
	Title       string
	OCRMethod   string
	Product     *render.Product
	FailedStage constants.Stage
	Err         error
}

// OK reports whether the item completed every stage.
func (r Result) OK() bool { return r.Err == nil }

// Pipeline wires the stages together.
type Pipeline struct {
	OCR       Extractor
	Parser    Parser
	Estimate  Estimator
	Nutrition NutritionResolver
	Content   ContentGenerator
	Renderer  Renderer
	Tracker   Recorder
	Logger    *slog.Logger
}

// Process runs one image to completion. The tracking record is written in
// every case, success or failure, so reruns skip finished work and can retry
// failed items.
func (p *Pipeline) Process(ctx context.Context, job ingest.ImageJob) Result {
	start := time.Now()
	log := p.logger().With("image", job.Name)
	log.Info("pipeline.item.start")

	res := Result{Job: job, FailedStage: constants.StagePending}

	extracted, err := p.OCR.Extract(ctx, job.Path)
	if err != nil {
		return p.fail(log, res, constants.StageOCR, err, start)
	}
	res.OCRMethod = extracted.Method

	draft, err := p.Parser.Parse(ctx, extracted.Text)
	if err != nil {
		return p.fail(log, res, constants.StageParse, err, start)
	}
	for _, w := range extracted.Warnings {
		draft.Warn("ocr: " + w)
	}
	res.Title = draft.Title

	if p.Estimate != nil {
		p.Estimate(ctx, draft)
	}
	p.Nutrition.Resolve(ctx, draft)
	listing := p.Content.Generate(ctx, draft)

	product, err := p.Renderer.Render(draft, listing, job.Path)
	if err != nil {
		return p.fail(log, res, constants.StageRender, err, start)
	}
	res.Product = product

	rec := tracker.Record{
		RecipeTitle: draft.Title,
		Success:     true,
		OCRMethod:   res.OCRMethod,
	}
	if err := p.Tracker.Record(job.Name, rec); err != nil {
		res.FailedStage = constants.StageRecord
		res.Err = err
		log.Error("pipeline.item.record_failed", "error", err)
		return res
	}

	res.FailedStage = ""
	log.Info("pipeline.item.ok",
		"title", draft.Title,
		"ocr_method", res.OCRMethod,
		"product", product.ID,
		"warnings", len(draft.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res
}

func (p *Pipeline) fail(log *slog.Logger, res Result, stage constants.Stage, err error, start time.Time) Result {
	res.FailedStage = stage
	res.Err = err
	log.Error("pipeline.item.failed",
		"stage", string(stage),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds())

	rec := tracker.Record{
		RecipeTitle: res.Title,
		Success:     false,
		OCRMethod:   res.OCRMethod,
		FailedStage: string(stage),
	}
	if recErr := p.Tracker.Record(res.Job.Name, rec); recErr != nil {
		log.Error("pipeline.item.record_failed", "error", recErr)
	}
	return res
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
