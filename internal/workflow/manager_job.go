package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// processJob runs one job through the pipeline, retrying the whole run for
// retryable failures. The per-job deadline bounds all attempts together.
func (m *Manager) processJob(ctx context.Context, job *jobs.Job) {
	logger := m.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("job_uuid", job.UUID),
	)

	jobCtx := ctx
	if m.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, m.jobTimeout)
		defer cancel()
	}

	for attempt := 0; ; attempt++ {
		err := m.runner.Run(jobCtx, job)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			logger.Debug("job interrupted by shutdown")
			return
		}
		m.setLastError(err)

		if jobCtx.Err() != nil {
			m.failJob(ctx, logger, job, services.Wrap(services.ErrTimeout, "workflow", "run", "job exceeded its time limit", jobCtx.Err()))
			return
		}
		if !services.Retryable(err) || attempt >= m.retryAttempts {
			m.failJob(ctx, logger, job, err)
			return
		}

		logger.Warn("job attempt failed; retrying",
			logging.Int("attempt", attempt+1),
			logging.Int("max_attempts", m.retryAttempts+1),
			logging.Duration("backoff", m.retryBackoff),
			logging.Error(err))
		select {
		case <-jobCtx.Done():
		case <-time.After(m.retryBackoff):
		}
	}
}

// failJob records the terminal failure, cleans the job workspace, and
// notifies once. Persistence uses a context that survives job cancellation
// so a deadline-exceeded job still lands in the failed state.
func (m *Manager) failJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, jobErr error) {
	message := strings.TrimSpace(jobErr.Error())
	if message == "" {
		message = "job failed without error detail"
	}
	job.SetFailed(message)

	persistCtx := context.WithoutCancel(ctx)
	if err := m.store.Update(persistCtx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist job failure")
		} else {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
	}

	if err := m.runner.Workspace().RemoveJobDir(job.UUID); err != nil {
		logger.Warn("job workspace cleanup failed", logging.Error(err))
	}

	logger.Error("job failed",
		logging.String("error_message", message),
		logging.String(logging.FieldEventType, "job_failure"),
		logging.Error(jobErr))
	if err := m.notifier.NotifyError(persistCtx, jobErr, "job "+job.UUID); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}
