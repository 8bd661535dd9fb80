// Package route moves processed files into the succeeded or failed
// directory according to their outcome.
package route

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
)

// Router routes files by outcome. An empty directory leaves files of that
// outcome in place. Cancelled tasks are always left in place.
//
// Only the base name is kept at the destination, so two inputs with the
// same base name overwrite each other there. See FindCollisions.
type Router struct {
	succeededDir string
	failedDir    string
	logger       *logging.Logger
}

// NewRouter creates the destination directories if needed.
func NewRouter(succeededDir, failedDir string, logger *logging.Logger) (*Router, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	for _, dir := range []string{succeededDir, failedDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create destination directory %s: %w", dir, err)
		}
	}
	return &Router{succeededDir: succeededDir, failedDir: failedDir, logger: logger}, nil
}

// DestinationDir returns the directory for an outcome kind, or "" when the
// file stays where it is.
func (r *Router) DestinationDir(kind models.OutcomeKind) string {
	switch kind {
	case models.Succeeded:
		return r.succeededDir
	case models.Failed:
		return r.failedDir
	default:
		return ""
	}
}

// Route moves the task's file for the given outcome and returns the new
// path, or "" if the file was left in place. Move failures are returned as
// *forklift.RoutingError; the caller still treats the task as done.
func (r *Router) Route(task models.UploadTask, outcome models.Outcome) (string, error) {
	dir := r.DestinationDir(outcome.Kind)
	if dir == "" {
		return "", nil
	}

	dest := filepath.Join(dir, filepath.Base(task.FilePath))
	if err := moveFile(task.FilePath, dest); err != nil {
		return "", &forklift.RoutingError{Path: task.FilePath, Dest: dest, Err: err}
	}

	r.logger.Debug().
		Int("index", task.Index).
		Str("file", task.FilePath).
		Str("dest", dest).
		Msg("Routed")
	return dest, nil
}

// moveFile renames src to dst, falling back to copy and remove when they
// are on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
