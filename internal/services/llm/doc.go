// Package llm wraps an OpenAI-compatible chat completion endpoint for
// narration script generation, with retry and rate-limit handling shared by
// every request.
package llm
