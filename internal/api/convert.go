package api

import (
	"time"

	"reelsmith/internal/jobs"
)

// FromJob converts a storage job into its API view.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	view := Job{
		ID:     job.ID,
		UUID:   job.UUID,
		Prompt: job.Prompt,
		Status: string(job.Status),
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		Script:         job.Script,
		ScriptDecision: string(job.ScriptDecision),
		ImagesDecision: string(job.ImagesDecision),
		VideosDecision: string(job.VideosDecision),
		FinalFile:      job.FinalFile,
		FinalSizeMB:    job.FinalSizeMB,
		FinalDuration:  job.FinalDuration,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      formatTime(job.CreatedAt),
		UpdatedAt:      formatTime(job.UpdatedAt),
		AwaitingStage:  AwaitingStage(job.Status),
	}
	if job.CompletedAt != nil {
		view.CompletedAt = formatTime(*job.CompletedAt)
	}
	return view
}

// FromJobWithSegments converts a job and its segments together.
func FromJobWithSegments(job *jobs.Job, segs []*jobs.Segment) Job {
	view := FromJob(job)
	if len(segs) > 0 {
		view.Segments = make([]Segment, 0, len(segs))
		for _, segment := range segs {
			view.Segments = append(view.Segments, FromSegment(segment))
		}
	}
	return view
}

// FromSegment converts a storage segment into its API view.
func FromSegment(segment *jobs.Segment) Segment {
	if segment == nil {
		return Segment{}
	}
	return Segment{
		Index:           segment.Index,
		Text:            segment.Text,
		StartSeconds:    segment.StartSeconds,
		EndSeconds:      segment.EndSeconds,
		Status:          string(segment.Status),
		ImageFile:       segment.ImageFile,
		VideoFile:       segment.VideoFile,
		ErrorMessage:    segment.ErrorMessage,
		ImagePrompt:     segment.ImagePrompt,
		AnimationPrompt: segment.AnimationPrompt,
	}
}

// AwaitingStage maps an awaiting-approval status to its approval stage name.
// Returns the empty string for every other status.
func AwaitingStage(status jobs.Status) string {
	switch status {
	case jobs.StatusAwaitingScriptApproval:
		return "script"
	case jobs.StatusAwaitingImagesApproval:
		return "images"
	case jobs.StatusAwaitingVideosApproval:
		return "videos"
	default:
		return ""
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
