// Package localfs walks input directories in a stable order.
package localfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileEntry represents a file or directory in the local filesystem.
type FileEntry struct {
	Path    string      // Full path to the file
	Name    string      // Base name of the file
	Size    int64       // Size in bytes (0 for directories)
	IsDir   bool        // True if this is a directory
	ModTime time.Time   // Last modification time
	Mode    fs.FileMode // File mode/permissions
}

// WalkFunc is the callback signature for Walk.
// Return filepath.SkipDir to skip a directory, or any other error to stop walking.
type WalkFunc func(entry FileEntry) error

// Walk traverses a directory tree in lexical order, calling fn for each
// file and directory. The root is never filtered as hidden.
func Walk(root string, opts WalkOptions, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("cannot read %s: %w", root, err)
			}
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			return nil
		}

		name := d.Name()

		if path != root && !opts.IncludeHidden && IsHiddenName(name) {
			if d.IsDir() && opts.SkipHiddenDirs {
				return filepath.SkipDir
			}
			if !d.IsDir() {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			return nil
		}

		return fn(FileEntry{
			Path:    path,
			Name:    name,
			Size:    info.Size(),
			IsDir:   d.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	})
}

// WalkFiles is like Walk but only calls fn for regular files.
// Symlinks are followed for the file check but never descended into.
func WalkFiles(root string, opts WalkOptions, fn WalkFunc) error {
	return Walk(root, opts, func(entry FileEntry) error {
		if entry.IsDir {
			return nil
		}
		if entry.Mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(entry.Path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
			entry.Size = info.Size()
			entry.Mode = info.Mode()
		}
		if !entry.Mode.IsRegular() {
			return nil
		}
		return fn(entry)
	})
}
