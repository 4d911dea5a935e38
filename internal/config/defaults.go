package config

const (
	defaultWorkDir = "~/.local/share/reelsmith/jobs"
	defaultLogDir  = "~/.local/share/reelsmith/logs"
	defaultAPIBind = "127.0.0.1:7519"

	defaultTargetDuration      = 240
	defaultSegmentDuration     = 5
	defaultMaxParallelSegments = 3
	defaultProgressUpdateEvery = 5
	defaultBatchFailureRatio   = 0.20
	defaultMaxVideoSizeMB      = 50
	defaultMinVideoBitrateKbps = 500
	defaultAudioBitrateKbps    = 128
	defaultJobTimeout          = 3600
	defaultRetryAttempts       = 3
	defaultRetryBackoff        = 60
	defaultPreviewImages       = 5
	defaultPreviewVideos       = 3

	defaultApprovalWaitTimeout  = 600
	defaultApprovalPollInterval = 2
	defaultApprovalTTL          = 900

	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMTimeoutSeconds = 60
	defaultLLMRetryAttempts  = 3

	defaultRenderBaseURL       = "https://api.runwayml.com/v1"
	defaultRenderModel         = "gen3"
	defaultRenderTaskTimeout   = 300
	defaultRenderPollInterval  = 5
	defaultRenderRetryAttempts = 2

	defaultSpeechBaseURL        = "https://api.openai.com/v1"
	defaultSpeechVoice          = "alloy"
	defaultSpeechModel          = "tts-1"
	defaultSpeechTimeoutSeconds = 120
	defaultSpeechRetryAttempts  = 3

	defaultNotifyRequestTimeout = 10

	defaultJobPollInterval    = 5
	defaultErrorRetryInterval = 10
	defaultMaxConcurrentJobs  = 2
	defaultCleanupAgeHours    = 1

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Pipeline: Pipeline{
			TargetDuration:      defaultTargetDuration,
			SegmentDuration:     defaultSegmentDuration,
			MaxParallelSegments: defaultMaxParallelSegments,
			ProgressUpdateEvery: defaultProgressUpdateEvery,
			BatchFailureRatio:   defaultBatchFailureRatio,
			MaxVideoSizeMB:      defaultMaxVideoSizeMB,
			MinVideoBitrateKbps: defaultMinVideoBitrateKbps,
			AudioBitrateKbps:    defaultAudioBitrateKbps,
			JobTimeout:          defaultJobTimeout,
			RetryAttempts:       defaultRetryAttempts,
			RetryBackoff:        defaultRetryBackoff,
			PreviewImages:       defaultPreviewImages,
			PreviewVideos:       defaultPreviewVideos,
		},
		Approval: Approval{
			WaitTimeout:  defaultApprovalWaitTimeout,
			PollInterval: defaultApprovalPollInterval,
			TTL:          defaultApprovalTTL,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Render: Render{
			BaseURL:       defaultRenderBaseURL,
			Model:         defaultRenderModel,
			TaskTimeout:   defaultRenderTaskTimeout,
			PollInterval:  defaultRenderPollInterval,
			RetryAttempts: defaultRenderRetryAttempts,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Voice:          defaultSpeechVoice,
			Model:          defaultSpeechModel,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
			RetryAttempts:  defaultSpeechRetryAttempts,
		},
		FFmpeg: FFmpeg{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Workflow: Workflow{
			JobPollInterval:    defaultJobPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxConcurrentJobs:  defaultMaxConcurrentJobs,
			CleanupAgeHours:    defaultCleanupAgeHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
