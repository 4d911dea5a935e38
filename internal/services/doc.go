// Package services holds the shared plumbing for external collaborator
// clients: the sentinel error taxonomy, error wrapping helpers, and
// context annotations (job id, stage, correlation id) used by logging.
//
// The concrete clients live in subpackages: llm (script and prompt
// generation), render (image generation and animation), and speech
// (text-to-speech and transcription).
package services
