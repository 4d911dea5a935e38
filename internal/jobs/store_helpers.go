package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, uuid, chat_id, prompt, status, script, script_decision, images_decision, videos_decision, audio_file, final_file, final_size_mb, final_duration, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, completed_at"

const segmentColumns = "id, job_id, idx, text, start_seconds, end_seconds, image_prompt, animation_prompt, image_file, video_file, status, error_message"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		jobUUID         string
		chatID          int64
		prompt          string
		statusStr       string
		script          sql.NullString
		scriptDecision  sql.NullString
		imagesDecision  sql.NullString
		videosDecision  sql.NullString
		audioFile       sql.NullString
		finalFile       sql.NullString
		finalSizeMB     sql.NullFloat64
		finalDuration   sql.NullFloat64
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobUUID,
		&chatID,
		&prompt,
		&statusStr,
		&script,
		&scriptDecision,
		&imagesDecision,
		&videosDecision,
		&audioFile,
		&finalFile,
		&finalSizeMB,
		&finalDuration,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		UUID:            jobUUID,
		ChatID:          chatID,
		Prompt:          prompt,
		Status:          Status(statusStr),
		Script:          script.String,
		ScriptDecision:  Decision(scriptDecision.String),
		ImagesDecision:  Decision(imagesDecision.String),
		VideosDecision:  Decision(videosDecision.String),
		AudioFile:       audioFile.String,
		FinalFile:       finalFile.String,
		FinalSizeMB:     finalSizeMB.Float64,
		FinalDuration:   finalDuration.Float64,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func scanSegment(scanner interface{ Scan(dest ...any) error }) (*Segment, error) {
	var (
		id              int64
		jobID           int64
		index           int
		text            sql.NullString
		startSeconds    int
		endSeconds      int
		imagePrompt     sql.NullString
		animationPrompt sql.NullString
		imageFile       sql.NullString
		videoFile       sql.NullString
		statusStr       string
		errorMessage    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&index,
		&text,
		&startSeconds,
		&endSeconds,
		&imagePrompt,
		&animationPrompt,
		&imageFile,
		&videoFile,
		&statusStr,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	return &Segment{
		ID:              id,
		JobID:           jobID,
		Index:           index,
		Text:            text.String,
		StartSeconds:    startSeconds,
		EndSeconds:      endSeconds,
		ImagePrompt:     imagePrompt.String,
		AnimationPrompt: animationPrompt.String,
		ImageFile:       imageFile.String,
		VideoFile:       videoFile.String,
		Status:          SegmentStatus(statusStr),
		ErrorMessage:    errorMessage.String,
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
