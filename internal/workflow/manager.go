package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"reelsmith/internal/config"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
)

// JobRunner executes one job end to end. Implemented by pipeline.Pipeline;
// tests substitute fakes.
type JobRunner interface {
	Run(ctx context.Context, job *jobs.Job) error
	Workspace() *fileutil.Workspace
}

// Manager coordinates background processing of pending jobs.
type Manager struct {
	cfg      *config.Config
	store    *jobs.Store
	runner   JobRunner
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	jobTimeout         time.Duration
	retryAttempts      int
	retryBackoff       time.Duration
	slots              *semaphore.Weighted

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	active  map[int64]struct{}
	lastErr error
}

// NewManager constructs a workflow manager from the daemon configuration.
func NewManager(cfg *config.Config, store *jobs.Store, runner JobRunner, notifier notifications.Service, logger *slog.Logger) *Manager {
	maxJobs := int64(cfg.Workflow.MaxConcurrentJobs)
	if maxJobs < 1 {
		maxJobs = 1
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:                cfg,
		store:              store,
		runner:             runner,
		notifier:           notifier,
		logger:             logging.NewComponentLogger(logger, "workflow"),
		pollInterval:       secondsOrDefault(cfg.Workflow.JobPollInterval, 5*time.Second),
		errorRetryInterval: secondsOrDefault(cfg.Workflow.ErrorRetryInterval, 10*time.Second),
		jobTimeout:         time.Duration(cfg.Pipeline.JobTimeout) * time.Second,
		retryAttempts:      cfg.Pipeline.RetryAttempts,
		retryBackoff:       time.Duration(cfg.Pipeline.RetryBackoff) * time.Second,
		slots:              semaphore.NewWeighted(maxJobs),
		active:             make(map[int64]struct{}),
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Start begins background processing. Jobs interrupted by a previous run keep
// their persisted status; the dispatcher claims them and the pipeline resumes
// each one from its recorded stage.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(2)
	m.mu.Unlock()

	unfinished, err := m.store.Unfinished(runCtx)
	if err != nil {
		m.logger.Error("failed to inspect unfinished jobs", logging.Error(err))
	} else if len(unfinished) > 0 {
		m.logger.Info("resuming unfinished jobs", logging.Int("jobs", len(unfinished)))
	}

	go m.dispatchLoop(runCtx)
	go m.cleanupLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight jobs to
// observe cancellation. Interrupted jobs are resumed on the next Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether background processing is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) dispatchLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.slots.Acquire(ctx, 1); err != nil {
			return
		}

		job, err := m.claimNext(ctx)
		if err != nil {
			m.slots.Release(1)
			m.setLastError(err)
			m.logger.Error("failed to fetch next job", logging.Error(err))
			m.waitOrShutdown(ctx, m.errorRetryInterval)
			continue
		}
		if job == nil {
			m.slots.Release(1)
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		m.wg.Add(1)
		go func(job *jobs.Job) {
			defer m.wg.Done()
			defer m.slots.Release(1)
			defer m.release(job.ID)
			m.processJob(ctx, job)
		}(job)
	}
}

// claimNext returns the oldest unfinished job not already being processed.
// Claiming by unfinished status rather than pending lets a restarted daemon
// pick work back up at whatever stage the previous run persisted.
func (m *Manager) claimNext(ctx context.Context) (*jobs.Job, error) {
	unfinished, err := m.store.Unfinished(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range unfinished {
		if _, busy := m.active[job.ID]; busy {
			continue
		}
		m.active[job.ID] = struct{}{}
		return job, nil
	}
	return nil, nil
}

func (m *Manager) release(jobID int64) {
	m.mu.Lock()
	delete(m.active, jobID)
	m.mu.Unlock()
}

func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
