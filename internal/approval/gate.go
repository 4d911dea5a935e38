package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
)

// Outcome is the result of waiting at an approval gate.
type Outcome int

const (
	// OutcomeApproved means a valid approval arrived inside the wait window.
	OutcomeApproved Outcome = iota
	// OutcomeRejected means a rejection arrived inside the wait window.
	OutcomeRejected
	// OutcomeTimedOut means the wait window elapsed with no valid decision.
	// Callers treat this the same as a rejection.
	OutcomeTimedOut
)

// String returns a human-readable label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Gate blocks a pipeline run until a human decision arrives for a stage.
// Decisions flow through the store, so the deciding process only needs
// database access, not a channel into the running pipeline.
type Gate struct {
	store        *Store
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewGate builds a gate from the approval configuration.
func NewGate(store *Store, cfg *config.Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gate{
		store:        store,
		waitTimeout:  time.Duration(cfg.Approval.WaitTimeout) * time.Second,
		pollInterval: time.Duration(cfg.Approval.PollInterval) * time.Second,
		logger:       logger.With(logging.String(logging.FieldComponent, "approval-gate")),
	}
}

// Request clears any stale decision so the wait that follows only observes
// verdicts given after the artifact was presented.
func (g *Gate) Request(ctx context.Context, jobID int64, stage Stage) error {
	if err := g.store.Clear(ctx, jobID, stage); err != nil {
		return fmt.Errorf("reset %s approval: %w", stage, err)
	}
	g.logger.Info("approval requested",
		logging.Int64(logging.FieldJobID, jobID),
		logging.String(logging.FieldStage, string(stage)))
	return nil
}

// Decide records a verdict for a waiting job stage. The latest decision wins.
func (g *Gate) Decide(ctx context.Context, jobID int64, stage Stage, decision Decision) error {
	if err := g.store.Put(ctx, jobID, stage, decision); err != nil {
		return err
	}
	g.logger.Info("decision recorded",
		logging.Int64(logging.FieldJobID, jobID),
		logging.String(logging.FieldStage, string(stage)),
		logging.String("decision", string(decision)))
	return nil
}

// Wait polls the store until a decision arrives or the wait window closes.
// A context cancellation surfaces as an error; a quiet timeout does not.
func (g *Gate) Wait(ctx context.Context, jobID int64, stage Stage) (Outcome, error) {
	deadline := time.Now().Add(g.waitTimeout)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		decision, ok, err := g.store.Get(ctx, jobID, stage)
		if err != nil {
			return OutcomeTimedOut, err
		}
		if ok {
			if decision == DecisionApproved {
				return OutcomeApproved, nil
			}
			return OutcomeRejected, nil
		}
		if !time.Now().Before(deadline) {
			g.logger.Warn("approval wait timed out",
				logging.Int64(logging.FieldJobID, jobID),
				logging.String(logging.FieldStage, string(stage)),
				logging.Duration("waited", g.waitTimeout))
			return OutcomeTimedOut, nil
		}
		select {
		case <-ctx.Done():
			return OutcomeTimedOut, ctx.Err()
		case <-ticker.C:
		}
	}
}
