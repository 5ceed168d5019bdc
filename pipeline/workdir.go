package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugeFrog24/gpt-video-quiz/logger"
	"github.com/google/uuid"
)

const workDirPrefix = "video_study_"

// WorkDir is the private scratch directory of a single job.
type WorkDir struct {
	Path      string
	removeAll func(string) error
}

// createWorkDir makes a fresh, uniquely named directory under base (the system
// temp dir when base is empty).
func createWorkDir(base string, jobID uuid.UUID, mkdirTemp func(string, string) (string, error), removeAll func(string) error) (*WorkDir, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create work dir base %s: %w", base, err)
		}
	}

	path, err := mkdirTemp(base, fmt.Sprintf("%s%s_*", workDirPrefix, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	return &WorkDir{Path: path, removeAll: removeAll}, nil
}

// Remove deletes the directory and everything in it. Safe to call twice.
func (w *WorkDir) Remove() error {
	if w == nil || w.Path == "" {
		return nil
	}
	if err := w.removeAll(w.Path); err != nil {
		return fmt.Errorf("failed to remove work dir %s: %w", w.Path, err)
	}
	w.Path = ""
	return nil
}

// SweepStaleWorkDirs removes job directories left under base by a process that
// died mid-job. Only call it on a base dir this process owns exclusively.
func SweepStaleWorkDirs(base string) (int, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read work dir base %s: %w", base, err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workDirPrefix) {
			continue
		}
		path := filepath.Join(base, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Emit(logger.WARNING, "Failed to remove stale work dir %s: %v\n", path, err)
			continue
		}
		removed++
	}

	return removed, nil
}
