package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"reelsmith/internal/approval"
	"reelsmith/internal/assembly"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/segments"
	"reelsmith/internal/services"
)

func (p *Pipeline) startJob(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	if _, err := p.workspace.EnsureJobDirs(job.UUID); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "start", "create job workspace", err)
	}
	p.notify(logger, "job started", p.notifier.NotifyJobStarted(ctx, job.UUID, job.Prompt))
	return p.advance(ctx, job, jobs.StatusGeneratingScript, "Generating script", "Writing narration script", 10)
}

func (p *Pipeline) generateScript(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	text, err := p.scripts.GenerateScript(ctx, job.Prompt, p.cfg.Pipeline.TargetDuration)
	if err != nil {
		return err
	}
	job.Script = text

	segs, err := p.splitter.Split(text)
	if err != nil {
		return err
	}
	if err := p.store.ReplaceSegments(ctx, job.ID, segs); err != nil {
		return err
	}
	logger.Info("script generated",
		logging.Int("segments", len(segs)),
		logging.Int("script_chars", len(text)))

	if err := p.advance(ctx, job, jobs.StatusAwaitingScriptApproval, "Awaiting script approval", "Script ready for review", 20); err != nil {
		return err
	}
	if err := p.gate.Request(ctx, job.ID, approval.StageScript); err != nil {
		return err
	}
	p.notify(logger, "script ready", p.notifier.NotifyScriptReady(ctx, job.UUID, text))
	p.notify(logger, "approval needed", p.notifier.NotifyApprovalNeeded(ctx, job.UUID, string(approval.StageScript)))
	return nil
}

func (p *Pipeline) awaitApproval(ctx context.Context, logger *slog.Logger, job *jobs.Job, stage approval.Stage, approvedStatus jobs.Status) error {
	outcome, err := p.gate.Wait(ctx, job.ID, stage)
	if err != nil {
		return err
	}

	switch outcome {
	case approval.OutcomeApproved:
		setDecision(job, stage, jobs.DecisionApproved)
		if err := job.Transition(approvedStatus); err != nil {
			return err
		}
		job.ProgressMessage = fmt.Sprintf("%s approved", stage)
		return p.store.Update(ctx, job)
	default:
		// Rejection and timeout cancel identically.
		setDecision(job, stage, jobs.DecisionRejected)
		logger.Info("approval did not pass",
			logging.String("approval_stage", string(stage)),
			logging.String("outcome", outcome.String()))
		return p.cancelJob(ctx, logger, job)
	}
}

func setDecision(job *jobs.Job, stage approval.Stage, decision jobs.Decision) {
	switch stage {
	case approval.StageScript:
		job.ScriptDecision = decision
	case approval.StageImages:
		job.ImagesDecision = decision
	case approval.StageVideos:
		job.VideosDecision = decision
	}
}

func (p *Pipeline) generateImages(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	segs, err := p.store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := p.batch.GenerateImages(ctx, segs, p.workspace.ImagesDir(job.UUID), p.progressFunc(ctx, logger, job, "Generating images", 25, 40)); err != nil {
		return err
	}

	previews := previewFiles(segs, jobs.SegmentImageReady, p.cfg.Pipeline.PreviewImages, func(s *jobs.Segment) string { return s.ImageFile })
	p.notify(logger, "image previews", p.notifier.NotifyPreviewReady(ctx, job.UUID, "image", previews))

	if err := p.advance(ctx, job, jobs.StatusAwaitingImagesApproval, "Awaiting images approval", "Images ready for review", 45); err != nil {
		return err
	}
	if err := p.gate.Request(ctx, job.ID, approval.StageImages); err != nil {
		return err
	}
	p.notify(logger, "approval needed", p.notifier.NotifyApprovalNeeded(ctx, job.UUID, string(approval.StageImages)))
	return nil
}

func (p *Pipeline) animateVideos(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	segs, err := p.store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := p.batch.AnimateImages(ctx, segs, p.workspace.VideosDir(job.UUID), p.progressFunc(ctx, logger, job, "Animating videos", 50, 60)); err != nil {
		return err
	}

	previews := previewFiles(segs, jobs.SegmentVideoReady, p.cfg.Pipeline.PreviewVideos, func(s *jobs.Segment) string { return s.VideoFile })
	p.notify(logger, "video previews", p.notifier.NotifyPreviewReady(ctx, job.UUID, "video", previews))

	if err := p.advance(ctx, job, jobs.StatusAwaitingVideosApproval, "Awaiting videos approval", "Clips ready for review", 65); err != nil {
		return err
	}
	if err := p.gate.Request(ctx, job.ID, approval.StageVideos); err != nil {
		return err
	}
	p.notify(logger, "approval needed", p.notifier.NotifyApprovalNeeded(ctx, job.UUID, string(approval.StageVideos)))
	return nil
}

func (p *Pipeline) generateAudio(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	audioPath := filepath.Join(p.workspace.AudioDir(job.UUID), "narration.mp3")
	if err := p.speech.Synthesize(ctx, job.Script, audioPath); err != nil {
		return err
	}
	job.AudioFile = audioPath
	logger.Info("narration synthesized", logging.String("audio_file", audioPath))
	return p.advance(ctx, job, jobs.StatusAssemblingVideo, "Assembling video", "Combining clips and narration", 80)
}

func (p *Pipeline) assemble(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	segs, err := p.store.SegmentsByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	clips := segments.CompletedClips(segs)
	if len(clips) == 0 {
		return services.Wrap(services.ErrAssembly, "assembly", "concatenate", "no completed clips", nil)
	}

	jobDir := p.workspace.JobDir(job.UUID)
	silent := filepath.Join(jobDir, "combined.mp4")
	if err := p.encoder.Concatenate(ctx, clips, silent); err != nil {
		return err
	}

	videoDuration, err := p.encoder.Duration(ctx, silent)
	if err != nil {
		return err
	}
	audioDuration, err := p.encoder.Duration(ctx, job.AudioFile)
	if err != nil {
		return err
	}

	plan, err := assembly.PlanTempo(audioDuration, videoDuration)
	if err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "tempo", "plan tempo adjustment", err)
	}
	audioKbps := p.cfg.Pipeline.AudioBitrateKbps
	audioPath := job.AudioFile
	if plan.NeedsAdjustment() {
		matched := filepath.Join(p.workspace.AudioDir(job.UUID), "narration_matched.m4a")
		if err := p.encoder.AdjustTempo(ctx, audioPath, matched, plan, audioKbps); err != nil {
			return err
		}
		audioPath = matched
		logger.Info("audio tempo matched",
			logging.Float64("audio_duration", audioDuration),
			logging.Float64("video_duration", videoDuration),
			logging.Float64("tempo_factor", plan.Factor))
	}

	muxed := filepath.Join(jobDir, "final.mp4")
	if err := p.encoder.MuxAudio(ctx, silent, audioPath, muxed, audioKbps); err != nil {
		return err
	}

	duration, err := p.encoder.Duration(ctx, muxed)
	if err != nil {
		return err
	}
	sizeMB, err := media.FileSizeMB(muxed)
	if err != nil {
		return err
	}

	maxSize := p.cfg.Pipeline.MaxVideoSizeMB
	if maxSize > 0 && sizeMB > float64(maxSize) {
		cplan, err := assembly.PlanCompression(maxSize, duration, audioKbps, p.cfg.Pipeline.MinVideoBitrateKbps)
		if err != nil {
			return services.Wrap(services.ErrAssembly, "assembly", "compress", "plan compression", err)
		}
		compressed := filepath.Join(jobDir, "final_compressed.mp4")
		if err := p.encoder.Compress(ctx, muxed, compressed, cplan); err != nil {
			return err
		}
		muxed = compressed
		if sizeMB, err = media.FileSizeMB(muxed); err != nil {
			return err
		}
		// One attempt only; an output still over the cap cannot be delivered.
		if sizeMB > float64(maxSize) {
			return services.Wrap(services.ErrAssembly, "assembly", "compress",
				fmt.Sprintf("final video is %.1f MB after compression, cap is %d MB", sizeMB, maxSize), nil)
		}
		logger.Info("final video compressed",
			logging.Int("video_bitrate_kbps", cplan.VideoBitrateKbps),
			logging.Float64("size_mb", sizeMB))
	}

	final, err := p.workspace.Deliver(job.UUID, muxed)
	if err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "deliver", "copy final video", err)
	}

	job.FinalFile = final
	job.FinalSizeMB = sizeMB
	job.FinalDuration = duration
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := job.Transition(jobs.StatusCompleted); err != nil {
		return err
	}
	job.SetProgress("Completed", "Final video ready", 100)
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}

	if err := p.workspace.RemoveJobDir(job.UUID); err != nil {
		logger.Warn("job workspace cleanup failed", logging.Error(err))
	}
	p.notify(logger, "job completed", p.notifier.NotifyJobCompleted(ctx, job.UUID, final, sizeMB, duration))
	logger.Info("job completed",
		logging.String("final_file", final),
		logging.Float64("size_mb", sizeMB),
		logging.Float64("duration_seconds", duration))
	return nil
}

// cancelJob marks the job cancelled at its current stage, cleans its
// workspace, and notifies once.
func (p *Pipeline) cancelJob(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	stage := string(job.Status)
	job.SetCancelled(stage)
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}
	if err := p.workspace.RemoveJobDir(job.UUID); err != nil {
		logger.Warn("job workspace cleanup failed", logging.Error(err))
	}
	p.notify(logger, "job cancelled", p.notifier.NotifyJobCancelled(ctx, job.UUID, stage))
	return nil
}

// progressFunc maps batch completion onto a progress range and persists it.
// Batch workers report concurrently, so updates are serialized here.
func (p *Pipeline) progressFunc(ctx context.Context, logger *slog.Logger, job *jobs.Job, label string, startPct, endPct float64) segments.ProgressFunc {
	var mu sync.Mutex
	return func(done, total int) {
		if total <= 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		pct := startPct + (endPct-startPct)*float64(done)/float64(total)
		job.SetProgress(label, fmt.Sprintf("%d of %d segments", done, total), pct)
		if err := p.store.Update(ctx, job); err != nil {
			logger.Warn("progress update failed", logging.Error(err))
		}
	}
}

func previewFiles(segs []*jobs.Segment, want jobs.SegmentStatus, limit int, path func(*jobs.Segment) string) []string {
	if limit <= 0 {
		return nil
	}
	files := make([]string, 0, limit)
	for _, segment := range segs {
		if segment.Status != want {
			continue
		}
		if file := path(segment); file != "" {
			files = append(files, file)
		}
		if len(files) == limit {
			break
		}
	}
	return files
}
