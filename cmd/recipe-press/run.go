package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tboyle/recipe-press/constants"
	"github.com/tboyle/recipe-press/internal/batch"
	"github.com/tboyle/recipe-press/internal/common"
	"github.com/tboyle/recipe-press/internal/content"
	"github.com/tboyle/recipe-press/internal/export"
	"github.com/tboyle/recipe-press/internal/images"
	"github.com/tboyle/recipe-press/internal/ingest"
	"github.com/tboyle/recipe-press/internal/nutrition"
	"github.com/tboyle/recipe-press/internal/ocr"
	"github.com/tboyle/recipe-press/internal/openai"
	"github.com/tboyle/recipe-press/internal/pipeline"
	"github.com/tboyle/recipe-press/internal/recipe"
	"github.com/tboyle/recipe-press/internal/render"
	"github.com/tboyle/recipe-press/internal/retry"
	"github.com/tboyle/recipe-press/internal/runlog"
	"github.com/tboyle/recipe-press/internal/tracker"
)

// app bundles everything one invocation needs.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	runlogs  *runlog.RunLogs
	tracker  *tracker.Tracker
	pipeline *pipeline.Pipeline
	llm      *openai.Client
	exporter *export.Service
}

// run executes the selected mode. Per-item failures are reported in the
// summary and do not fail the process; only configuration and startup
// problems return an error.
func run(ctx context.Context, flags runFlags) error {
	cfg := common.LoadConfig()

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !constants.ValidOCRMethod(flags.ocrMethod) {
		return common.ConfigError(fmt.Sprintf("unknown OCR method %q", flags.ocrMethod))
	}

	// csv-only runs offline and needs no API credentials
	if flags.csvOnly {
		exporter := export.NewService(cfg.Paths.ProductsDir, logger)
		n, err := exporter.WriteMaster()
		if err != nil {
			return err
		}
		fmt.Printf("Master listing rebuilt: %d products\n", n)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a := buildApp(cfg, logger, flags)
	defer a.runlogs.Close()
	a.runlogs.Command(os.Args)

	jobs, stats, err := ingest.ListImages(cfg.Paths.ImageDir)
	if err != nil {
		return err
	}
	logger.Info("ingest.scan.done", "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)

	switch {
	case flags.imagesOnly:
		return a.runImagesOnly(ctx, jobs)
	case flags.single:
		return a.runSingle(ctx, jobs, flags)
	default:
		return a.runAll(ctx, jobs, flags)
	}
}

func buildApp(cfg *common.Config, logger *slog.Logger, flags runFlags) *app {
	runlogs := runlog.Open(cfg.Paths.LogsDir, logger)

	policy := retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	}

	llm := openai.NewClient(openai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, policy, runlogs, logger)

	usda := nutrition.NewUSDAClient(nutrition.USDAConfig{
		BaseURL: cfg.USDA.BaseURL,
		APIKey:  cfg.USDA.APIKey,
		Timeout: cfg.USDA.Timeout,
	}, policy, runlogs, logger)

	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
	})
	vision := ocr.NewVision(llm)

	order := ocr.OrderFor(constants.OCRMethod(flags.ocrMethod), tesseract, vision)
	extractor := ocr.NewExtractor(logger, order...)

	track := tracker.Load(cfg.Paths.TrackingFile, logger)

	p := &pipeline.Pipeline{
		OCR:    extractor,
		Parser: recipe.NewParser(llm, logger),
		Estimate: func(ctx context.Context, d *recipe.Draft) {
			recipe.EstimateDetails(ctx, llm, logger, d)
		},
		Nutrition: nutrition.NewResolver(usda, llm, logger),
		Content:   content.NewGenerator(llm, logger),
		Renderer:  render.NewRenderer(cfg.Paths.ProductsDir, logger),
		Tracker:   track,
		Logger:    logger,
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		runlogs:  runlogs,
		tracker:  track,
		pipeline: p,
		llm:      llm,
		exporter: export.NewService(cfg.Paths.ProductsDir, logger),
	}
}

func (a *app) runSingle(ctx context.Context, jobs []ingest.ImageJob, flags runFlags) error {
	job, err := ingest.Select(jobs, flags.image)
	if err != nil {
		return err
	}

	res := a.pipeline.Process(ctx, job)
	a.runlogs.Event("single %s: ok=%v stage=%s", job.Name, res.OK(), res.FailedStage)
	printSummary([]pipeline.Result{res}, 0)
	if flags.genImages {
		a.generateImages(ctx, []ingest.ImageJob{job})
	}
	a.rebuildMaster()
	return nil
}

func (a *app) runAll(ctx context.Context, jobs []ingest.ImageJob, flags runFlags) error {
	groupSize := flags.batchSize
	if groupSize <= 0 {
		groupSize = a.cfg.Batch.Size
	}

	driver := &batch.Driver{
		Processor: a.pipeline,
		Skipper:   a.tracker,
		Logger:    a.logger,
	}
	res := driver.Run(ctx, jobs, batch.Options{
		StartIndex: flags.startIndex,
		Limit:      flags.limit,
		GroupSize:  groupSize,
		ItemPause:  a.cfg.Batch.ItemPause,
		GroupPause: a.cfg.Batch.GroupPause,
		Force:      flags.force,
	})

	a.runlogs.Event("batch: attempted=%d succeeded=%d failed=%d skipped=%d",
		res.Attempted, res.Succeeded, res.Failed, res.Skipped)
	printSummary(res.Items, res.Skipped)
	if flags.genImages {
		a.generateImages(ctx, jobs)
	}
	a.rebuildMaster()
	return nil
}

func (a *app) runImagesOnly(ctx context.Context, jobs []ingest.ImageJob) error {
	a.generateImages(ctx, jobs)
	return nil
}

func (a *app) generateImages(ctx context.Context, jobs []ingest.ImageJob) {
	svc := images.NewService(a.cfg.Paths.ProductsDir, a.llm, a.tracker, a.logger)
	res := svc.Run(ctx, jobs)
	a.runlogs.Event("images: eligible=%d generated=%d skipped=%d failed=%d",
		res.Eligible, res.Generated, res.Skipped, res.Failed)

	fmt.Printf("Product photos: %d generated, %d skipped, %d failed\n",
		res.Generated, res.Skipped, res.Failed)
	for _, id := range res.FailedIDs {
		fmt.Printf("  failed: %s\n", id)
	}
}

// rebuildMaster refreshes the master listing after a processing run. Failure
// here is reported but does not fail the run; csv-only rebuilds it on demand.
func (a *app) rebuildMaster() {
	n, err := a.exporter.WriteMaster()
	if err != nil {
		a.logger.Error("export.master.failed", "error", err)
		return
	}
	fmt.Printf("Master listing: %d products\n", n)
}
