// Package speech wraps the audio endpoints: narration synthesis for the
// assembly stage and voice-message transcription for prompt intake.
package speech
