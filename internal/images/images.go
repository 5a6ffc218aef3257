// Package images is the second pass over rendered products: it generates the
// two marketing photos for each finished recipe and marks them done in the
// tracker. The pass maps product folders back to source images through the
// "original-" copy the renderer leaves behind.
package images

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/internal/ingest"
	"github.com/tboyle/recipe-press/internal/tracker"
)

// Output file names inside each product folder.
const (
	MainImageName   = "image-main.png"
	ServedImageName = "image-served.png"

	imageSize = "1024x1024"
)

// Generator produces one image file; satisfied by *openai.Client.
type Generator interface {
	GenerateImage(ctx context.Context, prompt, outPath, size string) error
}

// Progress is the tracker slice the pass needs.
type Progress interface {
	Get(id string) (tracker.Record, bool)
	HasImagesGenerated(id string) bool
	MarkImagesGenerated(id string) error
}

// Result summarizes one image pass.
type Result struct {
	Eligible  int
	Generated int
	Skipped   int
	Failed    int
	FailedIDs []string
}

// Service runs the image pass.
type Service struct {
	productsDir string
	gen         Generator
	progress    Progress
	logger      *slog.Logger
}

func NewService(productsDir string, gen Generator, progress Progress, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{productsDir: productsDir, gen: gen, progress: progress, logger: logger}
}

// Run generates the photo pair for every successfully processed job that does
// not have one yet. Failures are tallied and the pass continues.
func (s *Service) Run(ctx context.Context, jobs []ingest.ImageJob) Result {
	start := time.Now()
	var res Result

	for _, job := range jobs {
		if ctx.Err() != nil {
			s.logger.Warn("images.run.cancelled", "generated", res.Generated)
			return res
		}

		rec, ok := s.progress.Get(job.Name)
		if !ok || !rec.Success {
			continue
		}
		res.Eligible++
		if s.progress.HasImagesGenerated(job.Name) {
			res.Skipped++
			continue
		}

		if err := s.generateFor(ctx, job, rec); err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, job.Name)
			s.logger.Error("images.item.failed", "image", job.Name, "error", err)
			continue
		}
		res.Generated++
	}

	s.logger.Info("images.run.done",
		"eligible", res.Eligible,
		"generated", res.Generated,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res
}

func (s *Service) generateFor(ctx context.Context, job ingest.ImageJob, rec tracker.Record) error {
	dir, err := s.findProductDir(job.Name)
	if err != nil {
		return err
	}

	title := rec.RecipeTitle
	if t, err := titleFromRecipeFile(filepath.Join(dir, "Recipe.txt")); err == nil && t != "" {
		title = t
	}
	if title == "" {
		return fmt.Errorf("no recipe title for %s", job.Name)
	}

	main := fmt.Sprintf(
		"Professional food photography of %s, freshly baked, styled on a rustic wooden table with vintage kitchen props, warm natural light, shallow depth of field.", title)
	served := fmt.Sprintf(
		"A serving of %s on a vintage floral plate, homemade and inviting, cozy farmhouse kitchen in the background, warm natural light.", title)

	if err := s.gen.GenerateImage(ctx, main, filepath.Join(dir, MainImageName), imageSize); err != nil {
		return fmt.Errorf("main image: %w", err)
	}
	if err := s.gen.GenerateImage(ctx, served, filepath.Join(dir, ServedImageName), imageSize); err != nil {
		return fmt.Errorf("served image: %w", err)
	}
	if err := s.progress.MarkImagesGenerated(job.Name); err != nil {
		return fmt.Errorf("mark generated: %w", err)
	}
	s.logger.Info("images.item.ok", "image", job.Name, "product", filepath.Base(dir), "title", title)
	return nil
}

// findProductDir locates the folder holding the "original-<name>" copy.
func (s *Service) findProductDir(imageName string) (string, error) {
	entries, err := os.ReadDir(s.productsDir)
	if err != nil {
		return "", fmt.Errorf("read products dir: %w", err)
	}
	want := "original-" + imageName
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(s.productsDir, e.Name())
		if _, err := os.Stat(filepath.Join(candidate, want)); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no product folder holds %s", want)
}

// titleFromRecipeFile reads the first non-empty line of Recipe.txt.
func titleFromRecipeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	return "", sc.Err()
}
