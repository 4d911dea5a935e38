package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeApproval()
	c.normalizeLLM()
	c.normalizeRender()
	c.normalizeSpeech()
	c.normalizeFFmpeg()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("REELSMITH_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.TargetDuration <= 0 {
		c.Pipeline.TargetDuration = defaultTargetDuration
	}
	if c.Pipeline.SegmentDuration <= 0 {
		c.Pipeline.SegmentDuration = defaultSegmentDuration
	}
	if c.Pipeline.MaxParallelSegments <= 0 {
		c.Pipeline.MaxParallelSegments = defaultMaxParallelSegments
	}
	if c.Pipeline.ProgressUpdateEvery <= 0 {
		c.Pipeline.ProgressUpdateEvery = defaultProgressUpdateEvery
	}
	if c.Pipeline.BatchFailureRatio <= 0 || c.Pipeline.BatchFailureRatio >= 1 {
		c.Pipeline.BatchFailureRatio = defaultBatchFailureRatio
	}
	if c.Pipeline.MaxVideoSizeMB <= 0 {
		c.Pipeline.MaxVideoSizeMB = defaultMaxVideoSizeMB
	}
	if c.Pipeline.MinVideoBitrateKbps <= 0 {
		c.Pipeline.MinVideoBitrateKbps = defaultMinVideoBitrateKbps
	}
	if c.Pipeline.AudioBitrateKbps <= 0 {
		c.Pipeline.AudioBitrateKbps = defaultAudioBitrateKbps
	}
	if c.Pipeline.JobTimeout <= 0 {
		c.Pipeline.JobTimeout = defaultJobTimeout
	}
	if c.Pipeline.RetryAttempts < 0 {
		c.Pipeline.RetryAttempts = defaultRetryAttempts
	}
	if c.Pipeline.RetryBackoff <= 0 {
		c.Pipeline.RetryBackoff = defaultRetryBackoff
	}
	if c.Pipeline.PreviewImages <= 0 {
		c.Pipeline.PreviewImages = defaultPreviewImages
	}
	if c.Pipeline.PreviewVideos <= 0 {
		c.Pipeline.PreviewVideos = defaultPreviewVideos
	}
}

func (c *Config) normalizeApproval() {
	if c.Approval.WaitTimeout <= 0 {
		c.Approval.WaitTimeout = defaultApprovalWaitTimeout
	}
	if c.Approval.PollInterval <= 0 {
		c.Approval.PollInterval = defaultApprovalPollInterval
	}
	if c.Approval.TTL <= 0 {
		c.Approval.TTL = defaultApprovalTTL
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("REELSMITH_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
}

func (c *Config) normalizeRender() {
	c.Render.APIKey = strings.TrimSpace(c.Render.APIKey)
	if c.Render.APIKey == "" {
		if value, ok := os.LookupEnv("REELSMITH_RENDER_API_KEY"); ok {
			c.Render.APIKey = strings.TrimSpace(value)
		}
	}
	c.Render.BaseURL = strings.TrimSpace(c.Render.BaseURL)
	if c.Render.BaseURL == "" {
		c.Render.BaseURL = defaultRenderBaseURL
	}
	c.Render.Model = strings.TrimSpace(c.Render.Model)
	if c.Render.Model == "" {
		c.Render.Model = defaultRenderModel
	}
	if c.Render.TaskTimeout <= 0 {
		c.Render.TaskTimeout = defaultRenderTaskTimeout
	}
	if c.Render.PollInterval <= 0 {
		c.Render.PollInterval = defaultRenderPollInterval
	}
	if c.Render.RetryAttempts < 0 {
		c.Render.RetryAttempts = defaultRenderRetryAttempts
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("REELSMITH_SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
	if c.Speech.RetryAttempts <= 0 {
		c.Speech.RetryAttempts = defaultSpeechRetryAttempts
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegPath = strings.TrimSpace(c.FFmpeg.FFmpegPath)
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	c.FFmpeg.FFprobePath = strings.TrimSpace(c.FFmpeg.FFprobePath)
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.JobPollInterval <= 0 {
		c.Workflow.JobPollInterval = defaultJobPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.MaxConcurrentJobs <= 0 {
		c.Workflow.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Workflow.CleanupAgeHours <= 0 {
		c.Workflow.CleanupAgeHours = defaultCleanupAgeHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
