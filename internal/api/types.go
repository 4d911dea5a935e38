package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a generation job in a transport-friendly format.
type Job struct {
	ID              int64       `json:"id"`
	UUID            string      `json:"uuid"`
	Prompt          string      `json:"prompt"`
	Status          string      `json:"status"`
	Progress        JobProgress `json:"progress"`
	Script          string      `json:"script,omitempty"`
	ScriptDecision  string      `json:"scriptDecision,omitempty"`
	ImagesDecision  string      `json:"imagesDecision,omitempty"`
	VideosDecision  string      `json:"videosDecision,omitempty"`
	FinalFile       string      `json:"finalFile,omitempty"`
	FinalSizeMB     float64     `json:"finalSizeMb,omitempty"`
	FinalDuration   float64     `json:"finalDurationSeconds,omitempty"`
	ErrorMessage    string      `json:"errorMessage,omitempty"`
	CreatedAt       string      `json:"createdAt,omitempty"`
	UpdatedAt       string      `json:"updatedAt,omitempty"`
	CompletedAt     string      `json:"completedAt,omitempty"`
	Segments        []Segment   `json:"segments,omitempty"`
	AwaitingStage   string      `json:"awaitingStage,omitempty"`
}

// JobProgress captures stage progress information for a job.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Segment describes one slice of the target video.
type Segment struct {
	Index           int    `json:"index"`
	Text            string `json:"text"`
	StartSeconds    int    `json:"startSeconds"`
	EndSeconds      int    `json:"endSeconds"`
	Status          string `json:"status"`
	ImageFile       string `json:"imageFile,omitempty"`
	VideoFile       string `json:"videoFile,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	ImagePrompt     string `json:"imagePrompt,omitempty"`
	AnimationPrompt string `json:"animationPrompt,omitempty"`
}

// DaemonStatus summarizes the daemon runtime state.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobDBPath    string         `json:"jobDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	JobStats     map[string]int `json:"jobStats"`
	LastError    string         `json:"lastError,omitempty"`
}

// SubmitRequest asks the daemon to enqueue a new job.
type SubmitRequest struct {
	Prompt    string `json:"prompt,omitempty"`
	AudioPath string `json:"audioPath,omitempty"`
}

// SubmitResponse carries the enqueued job back to the caller.
type SubmitResponse struct {
	Job Job `json:"job"`
}

// DecisionRequest records an approval decision. Stage may be empty, in which
// case the daemon infers it from the job's awaiting status.
type DecisionRequest struct {
	Stage string `json:"stage,omitempty"`
}

// DecisionResponse reports the recorded decision.
type DecisionResponse struct {
	UUID     string `json:"uuid"`
	Stage    string `json:"stage"`
	Decision string `json:"decision"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
