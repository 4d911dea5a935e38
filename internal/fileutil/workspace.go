package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const jobDirPrefix = "job-"

// Workspace manages the per-job directory tree under the configured work dir.
//
// Layout:
//
//	<work_dir>/job-<uuid>/images/
//	<work_dir>/job-<uuid>/videos/
//	<work_dir>/job-<uuid>/audio/
//	<work_dir>/output/<uuid>.mp4
type Workspace struct {
	root string
}

// NewWorkspace builds a workspace rooted at the configured work directory.
func NewWorkspace(cfg *config.Config) *Workspace {
	return &Workspace{root: cfg.Paths.WorkDir}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// JobDir returns the working directory for one job.
func (w *Workspace) JobDir(jobUUID string) string {
	return filepath.Join(w.root, jobDirPrefix+jobUUID)
}

// ImagesDir returns the generated-image directory for one job.
func (w *Workspace) ImagesDir(jobUUID string) string {
	return filepath.Join(w.JobDir(jobUUID), "images")
}

// VideosDir returns the animated-clip directory for one job.
func (w *Workspace) VideosDir(jobUUID string) string {
	return filepath.Join(w.JobDir(jobUUID), "videos")
}

// AudioDir returns the narration audio directory for one job.
func (w *Workspace) AudioDir(jobUUID string) string {
	return filepath.Join(w.JobDir(jobUUID), "audio")
}

// EnsureJobDirs creates the full directory tree for a job and returns the job dir.
func (w *Workspace) EnsureJobDirs(jobUUID string) (string, error) {
	jobUUID = strings.TrimSpace(jobUUID)
	if jobUUID == "" {
		return "", fmt.Errorf("job uuid must not be empty")
	}
	for _, dir := range []string{w.ImagesDir(jobUUID), w.VideosDir(jobUUID), w.AudioDir(jobUUID)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create job directory %s: %w", dir, err)
		}
	}
	return w.JobDir(jobUUID), nil
}

// OutputDir returns the durable directory for delivered final videos.
func (w *Workspace) OutputDir() string {
	return filepath.Join(w.root, "output")
}

// FinalPath returns the delivered location of a job's final video.
func (w *Workspace) FinalPath(jobUUID string) string {
	return filepath.Join(w.OutputDir(), jobUUID+".mp4")
}

// Deliver copies a finished video into the output directory with integrity
// verification and returns its final path.
func (w *Workspace) Deliver(jobUUID, sourcePath string) (string, error) {
	if err := os.MkdirAll(w.OutputDir(), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	final := w.FinalPath(jobUUID)
	if err := copyVerified(sourcePath, final); err != nil {
		return "", fmt.Errorf("deliver final video: %w", err)
	}
	return final, nil
}

// RemoveJobDir deletes a job's working directory tree. Missing directories are
// not an error.
func (w *Workspace) RemoveJobDir(jobUUID string) error {
	jobUUID = strings.TrimSpace(jobUUID)
	if jobUUID == "" {
		return nil
	}
	if err := os.RemoveAll(w.JobDir(jobUUID)); err != nil {
		return fmt.Errorf("remove job directory: %w", err)
	}
	return nil
}

// SweepStale removes job directories whose last modification is older than
// maxAge. Returns the number of directories removed. Delivered output files
// are left untouched.
func (w *Workspace) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read work directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), jobDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove stale directory %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
