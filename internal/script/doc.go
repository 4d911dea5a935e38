// Package script turns a generated narration script into the fixed grid of
// timed segments the rest of the pipeline works on, and derives the image and
// animation prompts for each segment.
package script
