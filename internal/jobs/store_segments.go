package jobs

import (
	"context"
	"errors"
	"fmt"
)

// ReplaceSegments deletes any existing segments for the job and inserts the
// provided set in one transaction.
func (s *Store) ReplaceSegments(ctx context.Context, jobID int64, segments []*Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}

	for _, segment := range segments {
		status := segment.Status
		if status == "" {
			status = SegmentPending
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO segments (
                job_id, idx, text, start_seconds, end_seconds,
                image_prompt, animation_prompt, image_file, video_file,
                status, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			jobID,
			segment.Index,
			nullableString(segment.Text),
			segment.StartSeconds,
			segment.EndSeconds,
			nullableString(segment.ImagePrompt),
			nullableString(segment.AnimationPrompt),
			nullableString(segment.ImageFile),
			nullableString(segment.VideoFile),
			status,
			nullableString(segment.ErrorMessage),
		)
		if err != nil {
			return fmt.Errorf("insert segment %d: %w", segment.Index, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("segment insert id: %w", err)
		}
		segment.ID = id
		segment.JobID = jobID
		segment.Status = status
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segments: %w", err)
	}
	return nil
}

// SegmentsByJob returns a job's segments ordered by index.
func (s *Store) SegmentsByJob(ctx context.Context, jobID int64) ([]*Segment, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+segmentColumns+` FROM segments WHERE job_id = ? ORDER BY idx`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var result []*Segment
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, segment)
	}
	return result, rows.Err()
}

// UpdateSegment persists changes to an existing segment.
func (s *Store) UpdateSegment(ctx context.Context, segment *Segment) error {
	if segment == nil {
		return errors.New("segment is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE segments
         SET text = ?, start_seconds = ?, end_seconds = ?, image_prompt = ?,
             animation_prompt = ?, image_file = ?, video_file = ?, status = ?,
             error_message = ?
         WHERE id = ?`,
		nullableString(segment.Text),
		segment.StartSeconds,
		segment.EndSeconds,
		nullableString(segment.ImagePrompt),
		nullableString(segment.AnimationPrompt),
		nullableString(segment.ImageFile),
		nullableString(segment.VideoFile),
		segment.Status,
		nullableString(segment.ErrorMessage),
		segment.ID,
	)
	if err != nil {
		return fmt.Errorf("update segment: %w", err)
	}
	return nil
}
