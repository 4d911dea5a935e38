package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"reelsmith/internal/assembly"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
)

// commandRunner executes an external command, discarding its output.
type commandRunner func(ctx context.Context, name string, args ...string) error

// outputRunner executes an external command and returns its stdout.
type outputRunner func(ctx context.Context, name string, args ...string) (string, error)

// FFmpeg wraps the ffmpeg and ffprobe binaries for the assembly operations
// the pipeline needs.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
	run         commandRunner
	capture     outputRunner
}

// NewFFmpeg constructs an encoder wrapper from configuration.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  cfg.FFmpeg.FFmpegPath,
		ffprobePath: cfg.FFmpeg.FFprobePath,
		logger:      logging.NewComponentLogger(logger, "ffmpeg"),
		run:         defaultCommandRunner,
		capture:     defaultOutputRunner,
	}
}

// WithRunners allows injecting custom command runners for tests.
func (f *FFmpeg) WithRunners(run commandRunner, capture outputRunner) {
	if f == nil {
		return
	}
	if run != nil {
		f.run = run
	}
	if capture != nil {
		f.capture = capture
	}
}

// Concatenate joins segment clips into one stream-copied video using the
// concat demuxer. The file list is written next to the output and removed
// when the command finishes.
func (f *FFmpeg) Concatenate(ctx context.Context, clipPaths []string, outputPath string) error {
	list, err := assembly.ConcatList(clipPaths)
	if err != nil {
		return err
	}
	listPath := outputPath + ".filelist.txt"
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	f.logger.Info("concatenating clips",
		logging.Int("clips", len(clipPaths)),
		logging.String("output", outputPath))

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}
	if err := f.run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("concatenate clips: %w", err)
	}
	return nil
}

// AdjustTempo re-encodes an audio file with the plan's atempo chain so its
// duration lands on the video's.
func (f *FFmpeg) AdjustTempo(ctx context.Context, audioPath, outputPath string, plan assembly.TempoPlan, audioKbps int) error {
	f.logger.Info("adjusting audio tempo",
		logging.Float64("factor", plan.Factor),
		logging.String("filter", plan.FilterChain()))

	args := []string{
		"-i", audioPath,
		"-filter:a", plan.FilterChain(),
		"-c:a", "aac",
		"-b:a", strconv.Itoa(audioKbps) + "k",
		"-y",
		outputPath,
	}
	if err := f.run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("adjust audio tempo: %w", err)
	}
	return nil
}

// MuxAudio lays the narration track under the concatenated video. The video
// stream is copied untouched; the output ends with the shorter stream.
func (f *FFmpeg) MuxAudio(ctx context.Context, videoPath, audioPath, outputPath string, audioKbps int) error {
	f.logger.Info("muxing audio",
		logging.String("video", videoPath),
		logging.String("audio", audioPath))

	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", strconv.Itoa(audioKbps) + "k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-y",
		outputPath,
	}
	if err := f.run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("mux audio: %w", err)
	}
	return nil
}

// Compress re-encodes the assembled video at the plan's bitrates with
// faststart so the result streams before it finishes downloading.
func (f *FFmpeg) Compress(ctx context.Context, inputPath, outputPath string, plan assembly.CompressionPlan) error {
	f.logger.Info("compressing video",
		logging.Int("video_kbps", plan.VideoBitrateKbps),
		logging.Bool("clamped", plan.Clamped))

	args := []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-b:v", strconv.Itoa(plan.VideoBitrateKbps) + "k",
		"-preset", "fast",
		"-crf", "28",
		"-c:a", "aac",
		"-b:a", strconv.Itoa(plan.AudioBitrateKbps) + "k",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
	if err := f.run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("compress video: %w", err)
	}
	return nil
}

// Duration probes a media file and returns its duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	out, err := f.capture(ctx, f.ffprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

// FileSizeMB returns a file's size in megabytes.
func FileSizeMB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return float64(info.Size()) / (1024 * 1024), nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout strings.Builder
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
