package assembly

import (
	"fmt"
	"strconv"
	"strings"
)

// Tolerance within which audio duration is accepted as-is, in seconds.
const tempoTolerance = 1.0

// atempo accepts factors in [0.5, 2.0]; larger corrections chain filters.
const (
	atempoMin = 0.5
	atempoMax = 2.0
)

// TempoPlan describes how to retime an audio track onto the video duration.
type TempoPlan struct {
	// Factor is the overall speed change, actual duration over target.
	Factor float64
	// Steps are the individual atempo factors to apply in order. Empty when
	// no adjustment is needed.
	Steps []float64
}

// NeedsAdjustment reports whether the audio must be retimed at all.
func (p TempoPlan) NeedsAdjustment() bool {
	return len(p.Steps) > 0
}

// FilterChain renders the plan as an ffmpeg audio filter expression.
func (p TempoPlan) FilterChain() string {
	if len(p.Steps) == 0 {
		return "anull"
	}
	parts := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		parts[i] = "atempo=" + strconv.FormatFloat(step, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

// PlanTempo computes the atempo chain that retimes audio of actualSeconds to
// targetSeconds. Durations within one second of the target pass unchanged.
func PlanTempo(actualSeconds, targetSeconds float64) (TempoPlan, error) {
	if actualSeconds <= 0 {
		return TempoPlan{}, fmt.Errorf("invalid audio duration %.3fs", actualSeconds)
	}
	if targetSeconds <= 0 {
		return TempoPlan{}, fmt.Errorf("invalid target duration %.3fs", targetSeconds)
	}

	diff := actualSeconds - targetSeconds
	if diff < 0 {
		diff = -diff
	}
	if diff <= tempoTolerance {
		return TempoPlan{Factor: 1}, nil
	}

	factor := actualSeconds / targetSeconds
	plan := TempoPlan{Factor: factor}

	remaining := factor
	for remaining > atempoMax {
		plan.Steps = append(plan.Steps, atempoMax)
		remaining /= atempoMax
	}
	for remaining < atempoMin {
		plan.Steps = append(plan.Steps, atempoMin)
		remaining /= atempoMin
	}
	if remaining != 1.0 {
		plan.Steps = append(plan.Steps, remaining)
	}
	return plan, nil
}
