package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelsmith/internal/approval"
	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/workflow"
)

// Transcriber converts an audio prompt into text before job submission.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *jobs.Store
	gate        *approval.Gate
	workflow    *workflow.Manager
	transcriber Transcriber
	api         *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDBPath    string
	LockFilePath string
	JobStats     map[jobs.Status]int
	LastError    string
}

// New constructs a daemon with initialized dependencies. The transcriber is
// optional; without one, audio submissions are rejected.
func New(cfg *config.Config, store *jobs.Store, gate *approval.Gate, wf *workflow.Manager, transcriber Transcriber, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || gate == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, gate, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelsmithd.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		store:       store,
		gate:        gate,
		workflow:    wf,
		transcriber: transcriber,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}
	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the daemon lock and launches the workflow manager and API
// server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}

	for _, status := range deps.CheckBinaries(deps.ForConfig(d.cfg)) {
		if !status.Available {
			d.logger.Warn("missing external dependency",
				logging.String("dependency", status.Name),
				logging.String("detail", status.Detail))
		}
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// APIAddr returns the bound API address once the daemon is started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Counts(ctx)
	if err != nil {
		d.logger.Warn("failed to count jobs", logging.Error(err))
	}
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
		JobStats:     stats,
	}
	if err := d.workflow.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}

// ListJobs returns jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	return d.store.List(ctx, statuses...)
}

// GetJob returns a job and its segments by UUID. The job is nil when not
// found.
func (d *Daemon) GetJob(ctx context.Context, jobUUID string) (*jobs.Job, []*jobs.Segment, error) {
	job, err := d.store.GetByUUID(ctx, jobUUID)
	if err != nil || job == nil {
		return nil, nil, err
	}
	segs, err := d.store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		return nil, nil, err
	}
	return job, segs, nil
}

// Submit enqueues a new job. Either a text prompt or an audio file may be
// provided; audio is transcribed first.
func (d *Daemon) Submit(ctx context.Context, prompt, audioPath string) (*jobs.Job, error) {
	prompt = strings.TrimSpace(prompt)
	audioPath = strings.TrimSpace(audioPath)
	if prompt == "" && audioPath == "" {
		return nil, errors.New("a prompt or an audio file is required")
	}
	if audioPath != "" {
		if d.transcriber == nil {
			return nil, errors.New("audio submissions are not supported without a speech service")
		}
		text, err := d.transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			return nil, fmt.Errorf("transcribe audio prompt: %w", err)
		}
		prompt = strings.TrimSpace(text)
		if prompt == "" {
			return nil, errors.New("audio prompt transcribed to empty text")
		}
	}

	job, err := d.store.NewJob(ctx, 0, prompt)
	if err != nil {
		return nil, err
	}
	d.logger.Info("job submitted",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("job_uuid", job.UUID))
	return job, nil
}

// Decide records an approval decision for a job. When stage is empty it is
// inferred from the job's awaiting status.
func (d *Daemon) Decide(ctx context.Context, jobUUID, stage string, decision approval.Decision) (approval.Stage, error) {
	job, err := d.store.GetByUUID(ctx, jobUUID)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", fmt.Errorf("job %s not found", jobUUID)
	}

	resolved, err := resolveStage(job, stage)
	if err != nil {
		return "", err
	}
	if err := d.gate.Decide(ctx, job.ID, resolved, decision); err != nil {
		return "", err
	}
	d.logger.Info("approval decision recorded",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("approval_stage", string(resolved)),
		logging.String("decision", string(decision)))
	return resolved, nil
}

func resolveStage(job *jobs.Job, stage string) (approval.Stage, error) {
	awaiting := awaitingStage(job.Status)
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage == "" {
		if awaiting == "" {
			return "", fmt.Errorf("job %s is not awaiting approval (status %s)", job.UUID, job.Status)
		}
		return awaiting, nil
	}

	resolved := approval.Stage(stage)
	switch resolved {
	case approval.StageScript, approval.StageImages, approval.StageVideos:
	default:
		return "", fmt.Errorf("unknown approval stage %q", stage)
	}
	if awaiting != "" && awaiting != resolved {
		return "", fmt.Errorf("job %s is awaiting %s approval, not %s", job.UUID, awaiting, resolved)
	}
	return resolved, nil
}

func awaitingStage(status jobs.Status) approval.Stage {
	switch status {
	case jobs.StatusAwaitingScriptApproval:
		return approval.StageScript
	case jobs.StatusAwaitingImagesApproval:
		return approval.StageImages
	case jobs.StatusAwaitingVideosApproval:
		return approval.StageVideos
	default:
		return ""
	}
}
