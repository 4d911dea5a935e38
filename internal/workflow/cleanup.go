package workflow

import (
	"context"
	"time"

	"reelsmith/internal/logging"
)

const cleanupInterval = time.Hour

func (m *Manager) cleanupLoop(ctx context.Context) {
	defer m.wg.Done()

	if err := m.Cleanup(ctx); err != nil {
		m.logger.Warn("startup cleanup failed", logging.Error(err))
	}

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Cleanup(ctx); err != nil {
				m.logger.Warn("periodic cleanup failed", logging.Error(err))
			}
		}
	}
}

// Cleanup removes terminal jobs and stale job directories older than the
// configured retention age.
func (m *Manager) Cleanup(ctx context.Context) error {
	ageHours := m.cfg.Workflow.CleanupAgeHours
	if ageHours <= 0 {
		ageHours = 24
	}
	age := time.Duration(ageHours) * time.Hour

	deleted, err := m.store.DeleteCompletedBefore(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	swept, err := m.runner.Workspace().SweepStale(age)
	if err != nil {
		return err
	}
	if deleted > 0 || swept > 0 {
		m.logger.Info("cleanup pass finished",
			logging.Int64("jobs_deleted", deleted),
			logging.Int("directories_removed", swept))
	}
	return nil
}
