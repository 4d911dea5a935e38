// Package assembly plans the final-cut operations: retiming the narration
// audio onto the video duration, concatenating segment clips, and choosing a
// compression bitrate that respects the delivery size cap. The plans are pure
// values; internal/media executes them with ffmpeg.
package assembly
