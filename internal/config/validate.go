package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks invariants that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.TargetDuration%c.Pipeline.SegmentDuration != 0 {
		problems = append(problems, fmt.Sprintf(
			"pipeline.target_duration (%d) must be a multiple of pipeline.segment_duration (%d)",
			c.Pipeline.TargetDuration, c.Pipeline.SegmentDuration,
		))
	}
	if c.SegmentCount() < 1 {
		problems = append(problems, "pipeline durations must yield at least one segment")
	}
	if c.Approval.PollInterval >= c.Approval.WaitTimeout {
		problems = append(problems, "approval.poll_interval must be shorter than approval.wait_timeout")
	}
	if c.Approval.TTL < c.Approval.WaitTimeout {
		problems = append(problems, "approval.ttl must not be shorter than approval.wait_timeout")
	}
	if c.Pipeline.JobTimeout < c.Approval.WaitTimeout {
		problems = append(problems, "pipeline.job_timeout must not be shorter than approval.wait_timeout")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

// ValidateSecrets reports missing API credentials. Kept separate from Validate
// so read-only commands (status, config show) work without keys configured.
func (c *Config) ValidateSecrets() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key")
	}
	if c.Render.APIKey == "" {
		missing = append(missing, "render.api_key")
	}
	if c.Speech.APIKey == "" {
		missing = append(missing, "speech.api_key")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
}
