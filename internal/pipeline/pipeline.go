package pipeline

import (
	"context"
	"log/slog"

	"reelsmith/internal/approval"
	"reelsmith/internal/assembly"
	"reelsmith/internal/config"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/script"
	"reelsmith/internal/segments"
	"reelsmith/internal/services"
)

// ScriptGenerator produces a narration script for a topic.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic string, targetDurationSeconds int) (string, error)
}

// Synthesizer converts narration text into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}

// SegmentBatcher fans segment rendering out over a worker pool.
type SegmentBatcher interface {
	GenerateImages(ctx context.Context, segs []*jobs.Segment, workDir string, progress segments.ProgressFunc) error
	AnimateImages(ctx context.Context, segs []*jobs.Segment, workDir string, progress segments.ProgressFunc) error
}

// Encoder covers the ffmpeg operations assembly needs.
type Encoder interface {
	Concatenate(ctx context.Context, clipPaths []string, outputPath string) error
	AdjustTempo(ctx context.Context, audioPath, outputPath string, plan assembly.TempoPlan, audioKbps int) error
	MuxAudio(ctx context.Context, videoPath, audioPath, outputPath string, audioKbps int) error
	Compress(ctx context.Context, inputPath, outputPath string, plan assembly.CompressionPlan) error
	Duration(ctx context.Context, path string) (float64, error)
}

// ApprovalGate blocks the pipeline at a human checkpoint.
type ApprovalGate interface {
	Request(ctx context.Context, jobID int64, stage approval.Stage) error
	Wait(ctx context.Context, jobID int64, stage approval.Stage) (approval.Outcome, error)
}

// Pipeline drives one job through every stage of the generation sequence.
type Pipeline struct {
	cfg       *config.Config
	store     *jobs.Store
	gate      ApprovalGate
	scripts   ScriptGenerator
	speech    Synthesizer
	batch     SegmentBatcher
	encoder   Encoder
	splitter  *script.Splitter
	workspace *fileutil.Workspace
	notifier  notifications.Service
	logger    *slog.Logger
}

// New builds a pipeline from its collaborators. The splitter is derived from
// the configured target and segment durations.
func New(
	cfg *config.Config,
	store *jobs.Store,
	gate ApprovalGate,
	scripts ScriptGenerator,
	speech Synthesizer,
	batch SegmentBatcher,
	encoder Encoder,
	notifier notifications.Service,
	logger *slog.Logger,
) (*Pipeline, error) {
	splitter, err := script.NewSplitter(cfg.Pipeline.TargetDuration, cfg.Pipeline.SegmentDuration)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "invalid segment plan", err)
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		gate:      gate,
		scripts:   scripts,
		speech:    speech,
		batch:     batch,
		encoder:   encoder,
		splitter:  splitter,
		workspace: fileutil.NewWorkspace(cfg),
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Workspace exposes the job directory layout the pipeline writes into.
func (p *Pipeline) Workspace() *fileutil.Workspace {
	return p.workspace
}

// Run advances the job until it reaches a terminal status or a stage fails.
// The job's persisted status determines where processing picks up, so a job
// reset after a restart resumes at the stage it was in. A returned error
// leaves the job in its current stage for the caller's retry policy;
// rejection and approval timeout cancel the job and return nil.
func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	logger := p.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("job_uuid", job.UUID),
	)

	for !job.Status.IsTerminal() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var err error
		switch job.Status {
		case jobs.StatusPending:
			err = p.startJob(ctx, logger, job)
		case jobs.StatusGeneratingScript:
			err = p.generateScript(ctx, logger, job)
		case jobs.StatusAwaitingScriptApproval:
			err = p.awaitApproval(ctx, logger, job, approval.StageScript, jobs.StatusScriptApproved)
		case jobs.StatusScriptApproved:
			err = p.advance(ctx, job, jobs.StatusGeneratingImages, "Generating images", "Rendering segment images", 25)
		case jobs.StatusGeneratingImages:
			err = p.generateImages(ctx, logger, job)
		case jobs.StatusAwaitingImagesApproval:
			err = p.awaitApproval(ctx, logger, job, approval.StageImages, jobs.StatusImagesApproved)
		case jobs.StatusImagesApproved:
			err = p.advance(ctx, job, jobs.StatusAnimatingVideos, "Animating videos", "Animating segment clips", 50)
		case jobs.StatusAnimatingVideos:
			err = p.animateVideos(ctx, logger, job)
		case jobs.StatusAwaitingVideosApproval:
			err = p.awaitApproval(ctx, logger, job, approval.StageVideos, jobs.StatusVideosApproved)
		case jobs.StatusVideosApproved:
			err = p.advance(ctx, job, jobs.StatusGeneratingAudio, "Generating audio", "Synthesizing narration", 70)
		case jobs.StatusGeneratingAudio:
			err = p.generateAudio(ctx, logger, job)
		case jobs.StatusAssemblingVideo:
			err = p.assemble(ctx, logger, job)
		default:
			err = services.Wrap(services.ErrValidation, "pipeline", "run", "unexpected job status "+string(job.Status), nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// advance transitions the job and persists the new stage and progress.
func (p *Pipeline) advance(ctx context.Context, job *jobs.Job, to jobs.Status, stageLabel, message string, percent float64) error {
	if err := job.Transition(to); err != nil {
		return err
	}
	job.SetProgress(stageLabel, message, percent)
	return p.store.Update(ctx, job)
}

// notify publishes a best-effort notification; delivery failures are logged
// and never fail the job.
func (p *Pipeline) notify(logger *slog.Logger, what string, err error) {
	if err != nil {
		logger.Warn("notification failed",
			logging.String("notification", what),
			logging.Error(err))
	}
}
