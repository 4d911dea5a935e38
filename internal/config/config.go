package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Pipeline contains the generation pipeline parameters.
type Pipeline struct {
	// TargetDuration is the final video length in seconds.
	TargetDuration int `toml:"target_duration"`
	// SegmentDuration is the length of one segment in seconds. The segment
	// count is TargetDuration / SegmentDuration.
	SegmentDuration     int     `toml:"segment_duration"`
	MaxParallelSegments int     `toml:"max_parallel_segments"`
	ProgressUpdateEvery int     `toml:"progress_update_every"`
	BatchFailureRatio   float64 `toml:"batch_failure_ratio"`
	MaxVideoSizeMB      int     `toml:"max_video_size_mb"`
	MinVideoBitrateKbps int     `toml:"min_video_bitrate_kbps"`
	AudioBitrateKbps    int     `toml:"audio_bitrate_kbps"`
	JobTimeout          int     `toml:"job_timeout"`
	RetryAttempts       int     `toml:"retry_attempts"`
	RetryBackoff        int     `toml:"retry_backoff"`
	PreviewImages       int     `toml:"preview_images"`
	PreviewVideos       int     `toml:"preview_videos"`
}

// Approval contains approval gate timing configuration.
type Approval struct {
	WaitTimeout  int `toml:"wait_timeout"`
	PollInterval int `toml:"poll_interval"`
	TTL          int `toml:"ttl"`
}

// LLM contains chat-completion API settings for script and prompt generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Render contains the image generation / animation API settings.
type Render struct {
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	Model         string `toml:"model"`
	TaskTimeout   int    `toml:"task_timeout"`
	PollInterval  int    `toml:"poll_interval"`
	RetryAttempts int    `toml:"retry_attempts"`
}

// Speech contains text-to-speech and transcription API settings.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Voice          string `toml:"voice"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// FFmpeg contains encoder binary locations.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	JobPollInterval    int `toml:"job_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	MaxConcurrentJobs  int `toml:"max_concurrent_jobs"`
	CleanupAgeHours    int `toml:"cleanup_age_hours"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: working/log directories and API bind address
//   - Pipeline: segment count, size limits, retry policy
//   - Approval: human approval gate timeouts and decision TTL
//   - LLM: script and prompt generation API
//   - Render: image generation and animation API
//   - Speech: text-to-speech and transcription API
//   - FFmpeg: encoder binary locations
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling and job concurrency
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Approval      Approval      `toml:"approval"`
	LLM           LLM           `toml:"llm"`
	Render        Render        `toml:"render"`
	Speech        Speech        `toml:"speech"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// SegmentCount returns the number of segments implied by the pipeline durations.
func (c *Config) SegmentCount() int {
	if c.Pipeline.SegmentDuration <= 0 {
		return 0
	}
	return c.Pipeline.TargetDuration / c.Pipeline.SegmentDuration
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
// Parent directories are created as needed. Refuses to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the working and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			trimmed = home
		} else {
			trimmed = filepath.Join(home, trimmed[2:])
		}
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
