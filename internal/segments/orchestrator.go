package segments

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// Renderer produces segment artifacts from prompts. Implemented by the
// render API client; tests substitute fakes.
type Renderer interface {
	GenerateImage(ctx context.Context, prompt, outputPath string) error
	AnimateImage(ctx context.Context, imagePath, prompt, outputPath string) error
}

// ProgressFunc receives batch progress after each completed segment.
type ProgressFunc func(done, total int)

// Store is the slice of the job store the orchestrator persists through.
type Store interface {
	UpdateSegment(ctx context.Context, segment *jobs.Segment) error
}

// Orchestrator fans segment work out over a bounded worker pool. Individual
// segment failures are recorded and tolerated; the batch only fails once the
// failure ratio is crossed.
type Orchestrator struct {
	renderer      Renderer
	store         Store
	maxParallel   int64
	failureRatio  float64
	progressEvery int
	logger        *slog.Logger
}

// NewOrchestrator builds an orchestrator from the pipeline configuration.
func NewOrchestrator(renderer Renderer, store Store, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	maxParallel := int64(cfg.Pipeline.MaxParallelSegments)
	if maxParallel < 1 {
		maxParallel = 1
	}
	progressEvery := cfg.Pipeline.ProgressUpdateEvery
	if progressEvery < 1 {
		progressEvery = 1
	}
	return &Orchestrator{
		renderer:      renderer,
		store:         store,
		maxParallel:   maxParallel,
		failureRatio:  cfg.Pipeline.BatchFailureRatio,
		progressEvery: progressEvery,
		logger:        logging.NewComponentLogger(logger, "segments"),
	}
}

// ImagePath returns where a segment's still image lives under the job dir.
func ImagePath(workDir string, index int) string {
	return filepath.Join(workDir, fmt.Sprintf("seg_%03d.png", index))
}

// ClipPath returns where a segment's animated clip lives under the job dir.
func ClipPath(workDir string, index int) string {
	return filepath.Join(workDir, fmt.Sprintf("seg_%03d.mp4", index))
}

// GenerateImages renders a still image for every pending segment. Segments
// that fail are marked failed and left behind; the batch errors only when
// more than the configured ratio of segments failed.
func (o *Orchestrator) GenerateImages(ctx context.Context, segs []*jobs.Segment, workDir string, progress ProgressFunc) error {
	return o.runBatch(ctx, segs, progress, "image generation", func(ctx context.Context, segment *jobs.Segment) error {
		if segment.Status != jobs.SegmentPending {
			return nil
		}
		output := ImagePath(workDir, segment.Index)
		if err := o.renderer.GenerateImage(ctx, segment.ImagePrompt, output); err != nil {
			return err
		}
		segment.ImageFile = output
		segment.Status = jobs.SegmentImageReady
		return nil
	})
}

// AnimateImages turns every image-ready segment into a short clip. Segments
// whose image generation failed are skipped, not retried.
func (o *Orchestrator) AnimateImages(ctx context.Context, segs []*jobs.Segment, workDir string, progress ProgressFunc) error {
	return o.runBatch(ctx, segs, progress, "animation", func(ctx context.Context, segment *jobs.Segment) error {
		if segment.Status != jobs.SegmentImageReady {
			return nil
		}
		output := ClipPath(workDir, segment.Index)
		if err := o.renderer.AnimateImage(ctx, segment.ImageFile, segment.AnimationPrompt, output); err != nil {
			return err
		}
		segment.VideoFile = output
		segment.Status = jobs.SegmentVideoReady
		return nil
	})
}

// CompletedClips returns the ordered clip paths of every video-ready segment.
// Results always come back sorted by segment index regardless of the order
// workers finished in.
func CompletedClips(segs []*jobs.Segment) []string {
	ordered := make([]*jobs.Segment, len(segs))
	copy(ordered, segs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	clips := make([]string, 0, len(ordered))
	for _, segment := range ordered {
		if segment.Status == jobs.SegmentVideoReady && segment.VideoFile != "" {
			clips = append(clips, segment.VideoFile)
		}
	}
	return clips
}

func (o *Orchestrator) runBatch(ctx context.Context, segs []*jobs.Segment, progress ProgressFunc, label string, work func(context.Context, *jobs.Segment) error) error {
	total := len(segs)
	if total == 0 {
		return services.Wrap(services.ErrValidation, "segments", label, "no segments to process", nil)
	}

	sem := semaphore.NewWeighted(o.maxParallel)
	group, gctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		done int
	)

	for _, segment := range segs {
		segment := segment
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if err := work(gctx, segment); err != nil {
				segment.Status = jobs.SegmentFailed
				segment.ErrorMessage = err.Error()
				o.logger.Warn("segment failed",
					logging.Int(logging.FieldSegment, segment.Index),
					logging.String("batch", label),
					logging.Error(err))
			}
			if o.store != nil {
				if err := o.store.UpdateSegment(gctx, segment); err != nil {
					return fmt.Errorf("persist segment %d: %w", segment.Index, err)
				}
			}

			mu.Lock()
			done++
			completed := done
			mu.Unlock()
			if progress != nil && (completed%o.progressEvery == 0 || completed == total) {
				progress(completed, total)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("%s batch: %w", label, err)
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].Index < segs[j].Index })

	failures := 0
	for _, segment := range segs {
		if segment.Status == jobs.SegmentFailed {
			failures++
		}
	}
	if float64(failures) > o.failureRatio*float64(total) {
		return services.Wrap(
			services.ErrBatchFailure,
			"segments",
			label,
			fmt.Sprintf("%d of %d segments failed, above the %.0f%% threshold", failures, total, o.failureRatio*100),
			nil,
		)
	}
	if failures > 0 {
		o.logger.Info("batch completed with tolerated failures",
			logging.String("batch", label),
			logging.Int("failures", failures),
			logging.Int("total", total))
	}
	return nil
}
