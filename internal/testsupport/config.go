package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "jobs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.LLM.APIKey = "test"
	cfgVal.Render.APIKey = "test"
	cfgVal.Speech.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSegmentPlan overrides the target and per-segment durations.
func WithSegmentPlan(targetSeconds, segmentSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.TargetDuration = targetSeconds
		b.cfg.Pipeline.SegmentDuration = segmentSeconds
	}
}

// WithApprovalTimings overrides the approval gate timing fields, all in seconds.
func WithApprovalTimings(waitTimeout, pollInterval, ttl int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Approval.WaitTimeout = waitTimeout
		b.cfg.Approval.PollInterval = pollInterval
		b.cfg.Approval.TTL = ttl
	}
}

// WithNtfyTopic sets the notification topic on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
