package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify collaborator failures. Every external client in
// this repository returns errors tagged with one of these markers; callers
// branch with errors.Is and never inspect message text.
var (
	// ErrRateLimited marks an upstream 429; retried with exponential backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient marks network failures and 5xx-class responses.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks a bounded external operation that exceeded its wait.
	ErrTimeout = errors.New("timeout")
	// ErrAssembly marks encoder failures and over-size final output.
	ErrAssembly = errors.New("assembly error")
	// ErrBatchFailure marks a generation batch whose per-item failures
	// exceeded the configured threshold.
	ErrBatchFailure = errors.New("batch failure threshold exceeded")
	// ErrValidation marks malformed input or responses that retrying cannot fix.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the pipeline retry policy should attempt the
// whole job again after this error.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
