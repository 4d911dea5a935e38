package main

import (
	"log/slog"

	"reelsmith/internal/approval"
	"reelsmith/internal/config"
	"reelsmith/internal/daemon"
	"reelsmith/internal/jobs"
	"reelsmith/internal/media"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/segments"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/render"
	"reelsmith/internal/services/speech"
	"reelsmith/internal/workflow"
)

func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, err
	}

	approvals, err := approval.Open(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	gate := approval.NewGate(approvals, cfg, logger)

	scripts := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		RetryAttempts:  cfg.LLM.RetryAttempts,
	})
	renderer := render.NewClient(render.Config{
		APIKey:        cfg.Render.APIKey,
		BaseURL:       cfg.Render.BaseURL,
		Model:         cfg.Render.Model,
		TaskTimeout:   cfg.Render.TaskTimeout,
		PollInterval:  cfg.Render.PollInterval,
		RetryAttempts: cfg.Render.RetryAttempts,
	})
	voice := speech.NewClient(speech.Config{
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		Voice:          cfg.Speech.Voice,
		Model:          cfg.Speech.Model,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		RetryAttempts:  cfg.Speech.RetryAttempts,
	})

	notifier := notifications.NewService(cfg)
	batch := segments.NewOrchestrator(renderer, store, cfg, logger)
	encoder := media.NewFFmpeg(cfg, logger)

	runner, err := pipeline.New(cfg, store, gate, scripts, voice, batch, encoder, notifier, logger)
	if err != nil {
		approvals.Close()
		store.Close()
		return nil, err
	}

	manager := workflow.NewManager(cfg, store, runner, notifier, logger)
	return daemon.New(cfg, store, gate, manager, voice, logger)
}
