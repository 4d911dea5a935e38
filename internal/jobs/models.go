package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusPending                Status = "pending"
	StatusGeneratingScript       Status = "generating_script"
	StatusAwaitingScriptApproval Status = "awaiting_script_approval"
	StatusScriptApproved         Status = "script_approved"
	StatusGeneratingImages       Status = "generating_images"
	StatusAwaitingImagesApproval Status = "awaiting_images_approval"
	StatusImagesApproved         Status = "images_approved"
	StatusAnimatingVideos        Status = "animating_videos"
	StatusAwaitingVideosApproval Status = "awaiting_videos_approval"
	StatusVideosApproved         Status = "videos_approved"
	StatusGeneratingAudio        Status = "generating_audio"
	StatusAssemblingVideo        Status = "assembling_video"
	StatusCompleted              Status = "completed"
	StatusCancelled              Status = "cancelled"
	StatusFailed                 Status = "failed"
)

// Decision captures a human approval outcome persisted on the job.
type Decision string

const (
	DecisionUnset    Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusGeneratingScript,
	StatusAwaitingScriptApproval,
	StatusScriptApproved,
	StatusGeneratingImages,
	StatusAwaitingImagesApproval,
	StatusImagesApproved,
	StatusAnimatingVideos,
	StatusAwaitingVideosApproval,
	StatusVideosApproved,
	StatusGeneratingAudio,
	StatusAssemblingVideo,
	StatusCompleted,
	StatusCancelled,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Job represents a generation job persisted in SQLite.
type Job struct {
	ID              int64
	UUID            string
	ChatID          int64
	Prompt          string
	Status          Status
	Script          string
	ScriptDecision  Decision
	ImagesDecision  Decision
	VideosDecision  Decision
	AudioFile       string
	FinalFile       string
	FinalSizeMB     float64
	FinalDuration   float64
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// SegmentStatus represents the lifecycle of one segment within a job.
type SegmentStatus string

const (
	SegmentPending    SegmentStatus = "pending"
	SegmentImageReady SegmentStatus = "image_ready"
	SegmentVideoReady SegmentStatus = "video_ready"
	SegmentFailed     SegmentStatus = "failed"
)

// Segment is one fixed-duration slice of the target video.
type Segment struct {
	ID              int64
	JobID           int64
	Index           int
	Text            string
	StartSeconds    int
	EndSeconds      int
	ImagePrompt     string
	AnimationPrompt string
	ImageFile       string
	VideoFile       string
	Status          SegmentStatus
	ErrorMessage    string
}

// AllStatuses returns the ordered list of known job statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// IsAwaitingApproval reports whether a status is one of the three wait-gates.
func (s Status) IsAwaitingApproval() bool {
	switch s {
	case StatusAwaitingScriptApproval, StatusAwaitingImagesApproval, StatusAwaitingVideosApproval:
		return true
	default:
		return false
	}
}

// SetProgress updates all three progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressStage = "Failed"
	j.ProgressPercent = 0
	j.ProgressMessage = message
}

// SetCancelled marks the job cancelled, recording the stage that rejected it.
func (j *Job) SetCancelled(stage string) {
	j.Status = StatusCancelled
	j.ProgressStage = "Cancelled"
	j.ProgressPercent = 0
	j.ProgressMessage = "Cancelled at " + stage
}
