package jobs

import "fmt"

// successor defines the single success transition for every non-terminal
// state. Any non-terminal state may also move to StatusCancelled (rejection,
// timeout, or user cancel) or StatusFailed.
var successor = map[Status]Status{
	StatusPending:                StatusGeneratingScript,
	StatusGeneratingScript:       StatusAwaitingScriptApproval,
	StatusAwaitingScriptApproval: StatusScriptApproved,
	StatusScriptApproved:         StatusGeneratingImages,
	StatusGeneratingImages:       StatusAwaitingImagesApproval,
	StatusAwaitingImagesApproval: StatusImagesApproved,
	StatusImagesApproved:         StatusAnimatingVideos,
	StatusAnimatingVideos:        StatusAwaitingVideosApproval,
	StatusAwaitingVideosApproval: StatusVideosApproved,
	StatusVideosApproved:         StatusGeneratingAudio,
	StatusGeneratingAudio:        StatusAssemblingVideo,
	StatusAssemblingVideo:        StatusCompleted,
}

// Next returns the success successor for a state, if any.
func Next(from Status) (Status, bool) {
	to, ok := successor[from]
	return to, ok
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed || to == StatusCancelled {
		return true
	}
	return successor[from] == to
}

// Transition mutates the job's status after validating legality. An illegal
// transition signals a programming error in the orchestrator, not bad input.
func (j *Job) Transition(to Status) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("illegal job transition: %s -> %s", j.Status, to)
	}
	j.Status = to
	return nil
}
