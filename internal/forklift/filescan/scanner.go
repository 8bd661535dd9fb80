// Package filescan builds the ordered list of upload tasks from explicit
// file arguments and a recursive directory walk.
package filescan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/localfs"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
	"github.com/dart-platform/dart-cli/internal/util/filter"
)

// ScanOptions configures a scan.
type ScanOptions struct {
	Files           []string // explicit files, enqueued first in the given order
	InputDir        string   // walked recursively after the explicit files
	IgnoreMetaFiles bool     // disables sidecar detection; .meta files become ordinary inputs
	Filter          filter.Config
	Logger          *logging.Logger
}

// ScanResult contains the tasks found and what was left out.
type ScanResult struct {
	Tasks          []models.UploadTask
	SkippedDirs    []string // explicit arguments that were directories
	SkippedHidden  int      // files skipped because their name starts with "."
	SkippedSidecar int      // .meta files not enqueued as primary files
	SkippedFilter  int      // files rejected by the include/exclude patterns
	Unreadable     []string // subdirectories of InputDir that could not be read
}

// ScanFiles enumerates tasks. Indices are assigned in discovery order:
// explicit files first, then the walk of InputDir in lexical order.
// An unreadable InputDir returns an *forklift.EnumerationError.
func ScanFiles(opts ScanOptions) (ScanResult, error) {
	if err := opts.Filter.Validate(); err != nil {
		return ScanResult{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var result ScanResult
	sidecars := !opts.IgnoreMetaFiles

	add := func(path string) {
		result.Tasks = append(result.Tasks, models.UploadTask{
			Index:    len(result.Tasks),
			FilePath: path,
			MetaPath: sidecarFor(path, sidecars),
		})
	}

	// accept applies the name filters shared by both sources. relPath is
	// what the include/exclude patterns see.
	accept := func(path, relPath string) bool {
		name := filepath.Base(path)
		if localfs.IsHiddenName(name) {
			result.SkippedHidden++
			return false
		}
		if sidecars && IsSidecar(name) {
			result.SkippedSidecar++
			return false
		}
		if !opts.Filter.Match(relPath) {
			result.SkippedFilter++
			return false
		}
		return true
	}

	for _, f := range opts.Files {
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			logger.Debug().Str("path", f).Msg("Skipping directory argument")
			result.SkippedDirs = append(result.SkippedDirs, f)
			continue
		}
		// Missing files are still enqueued so that they surface as failures.
		if accept(f, filepath.Base(f)) {
			add(f)
		}
	}

	if opts.InputDir == "" {
		return result, nil
	}

	info, err := os.Stat(opts.InputDir)
	if err != nil {
		return result, &forklift.EnumerationError{Root: opts.InputDir, Err: err}
	}
	if !info.IsDir() {
		return result, &forklift.EnumerationError{Root: opts.InputDir, Err: fmt.Errorf("not a directory")}
	}

	// Hidden directories are traversed; hidden names are filtered by accept.
	walkOpts := localfs.WalkOptions{
		IncludeHidden: true,
		OnError: func(path string, err error) {
			logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			result.Unreadable = append(result.Unreadable, path)
		},
	}

	err = localfs.WalkFiles(opts.InputDir, walkOpts, func(entry localfs.FileEntry) error {
		rel, err := filepath.Rel(opts.InputDir, entry.Path)
		if err != nil {
			rel = entry.Name
		}
		if accept(entry.Path, rel) {
			add(entry.Path)
		}
		return nil
	})
	if err != nil {
		return result, &forklift.EnumerationError{Root: opts.InputDir, Err: err}
	}

	return result, nil
}

// SidecarPath returns the companion metadata path for a file: the parent
// directory plus the base name up to its first "." plus ".meta".
// "docs/report.v2.json" maps to "docs/report.meta".
func SidecarPath(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return filepath.Join(filepath.Dir(path), name+constants.SidecarExtension)
}

// IsSidecar reports whether name is a metadata companion file.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, constants.SidecarExtension)
}

func sidecarFor(path string, enabled bool) string {
	if !enabled {
		return ""
	}
	return SidecarPath(path)
}
