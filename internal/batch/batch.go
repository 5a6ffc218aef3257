// Package batch paces a run of images through the pipeline: slicing by start
// index and limit, fixed-size groups with a long pause between them, and a
// short pause between items. Already-processed images are skipped up front.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/tboyle/recipe-press/internal/ingest"
	"github.com/tboyle/recipe-press/internal/pipeline"
)

// Options controls slicing and pacing for one run.
type Options struct {
	StartIndex int // 0-based offset into the enumerated list
	Limit      int // max items this run; 0 means no limit
	GroupSize  int // items per group; 0 disables grouping
	ItemPause  time.Duration
	GroupPause time.Duration
	Force      bool // reprocess items the tracker already marks done
}

// Result summarizes one run.
type Result struct {
	Scanned   int
	Skipped   int
	Attempted int
	Succeeded int
	Failed    int
	FailedIDs []string
	Items     []pipeline.Result
}

// Processor runs one image; satisfied by *pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, job ingest.ImageJob) pipeline.Result
}

// Skipper reports work already done; satisfied by *tracker.Tracker.
type Skipper interface {
	IsProcessed(id string) bool
}

// Driver walks a job list through the processor.
type Driver struct {
	Processor Processor
	Skipper   Skipper
	Logger    *slog.Logger

	// Sleep overrides pacing delays (tests). Nil uses a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

// Run processes jobs according to opts. It stops early only on context
// cancellation; per-item failures are tallied and the run continues.
func (dr *Driver) Run(ctx context.Context, jobs []ingest.ImageJob, opts Options) Result {
	log := dr.logger()
	res := Result{Scanned: len(jobs)}

	jobs = slice(jobs, opts.StartIndex)
	if opts.Limit > 0 && len(jobs) > opts.Limit {
		jobs = jobs[:opts.Limit]
	}

	// the limit bounds the raw window, so skipped items still consume slots
	pending := make([]ingest.ImageJob, 0, len(jobs))
	for _, j := range jobs {
		if !opts.Force && dr.Skipper != nil && dr.Skipper.IsProcessed(j.Name) {
			res.Skipped++
			log.Debug("batch.skip.processed", "image", j.Name)
			continue
		}
		pending = append(pending, j)
	}

	groups := group(pending, opts.GroupSize)
	log.Info("batch.run.start",
		"scanned", res.Scanned,
		"skipped", res.Skipped,
		"pending", len(pending),
		"groups", len(groups))

	for gi, g := range groups {
		for _, job := range g {
			if ctx.Err() != nil {
				log.Warn("batch.run.cancelled", "attempted", res.Attempted)
				return res
			}

			item := dr.Processor.Process(ctx, job)
			res.Items = append(res.Items, item)
			res.Attempted++
			if item.OK() {
				res.Succeeded++
			} else {
				res.Failed++
				res.FailedIDs = append(res.FailedIDs, job.Name)
			}

			// every item gets the short pause, group-final ones included
			if opts.ItemPause > 0 {
				dr.sleep(ctx, opts.ItemPause)
			}
		}
		if gi < len(groups)-1 && opts.GroupPause > 0 {
			log.Info("batch.group.pause", "group", gi+1, "of", len(groups), "pause", opts.GroupPause.String())
			dr.sleep(ctx, opts.GroupPause)
		}
	}

	log.Info("batch.run.done",
		"attempted", res.Attempted,
		"succeeded", res.Succeeded,
		"failed", res.Failed)
	return res
}

func slice(jobs []ingest.ImageJob, start int) []ingest.ImageJob {
	if start <= 0 {
		return jobs
	}
	if start >= len(jobs) {
		return nil
	}
	return jobs[start:]
}

func group(jobs []ingest.ImageJob, size int) [][]ingest.ImageJob {
	if len(jobs) == 0 {
		return nil
	}
	if size <= 0 || size >= len(jobs) {
		return [][]ingest.ImageJob{jobs}
	}
	var out [][]ingest.ImageJob
	for start := 0; start < len(jobs); start += size {
		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}
		out = append(out, jobs[start:end])
	}
	return out
}

func (dr *Driver) sleep(ctx context.Context, d time.Duration) {
	if dr.Sleep != nil {
		dr.Sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (dr *Driver) logger() *slog.Logger {
	if dr.Logger != nil {
		return dr.Logger
	}
	return slog.Default()
}
