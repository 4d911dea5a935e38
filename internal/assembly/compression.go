package assembly

import "fmt"

// CompressionPlan carries the bitrates for re-encoding the assembled video
// under the delivery size cap.
type CompressionPlan struct {
	VideoBitrateKbps int
	AudioBitrateKbps int
	// Clamped is set when the computed video bitrate fell below the floor
	// and was raised to it, meaning the size cap may be exceeded.
	Clamped bool
}

// PlanCompression derives the video bitrate that fits maxSizeMB of output at
// the given duration once the audio track's share is subtracted. The result
// never drops below minVideoKbps; when the floor kicks in the plan is marked
// clamped so callers can note the size cap is no longer a guarantee.
func PlanCompression(maxSizeMB int, durationSeconds float64, audioKbps, minVideoKbps int) (CompressionPlan, error) {
	if durationSeconds <= 0 {
		return CompressionPlan{}, fmt.Errorf("invalid video duration %.3fs", durationSeconds)
	}
	if maxSizeMB <= 0 {
		return CompressionPlan{}, fmt.Errorf("invalid size cap %dMB", maxSizeMB)
	}

	videoKbps := int(float64(maxSizeMB)*8192/durationSeconds) - audioKbps
	plan := CompressionPlan{
		VideoBitrateKbps: videoKbps,
		AudioBitrateKbps: audioKbps,
	}
	if plan.VideoBitrateKbps < minVideoKbps {
		plan.VideoBitrateKbps = minVideoKbps
		plan.Clamped = true
	}
	return plan, nil
}
