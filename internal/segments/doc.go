// Package segments runs the per-segment rendering batches: still images
// first, then animation into clips, each over a bounded worker pool with
// failure-ratio accounting.
package segments
