// Package forklift holds the error types shared by the bulk upload stages.
//
// Startup errors (enumeration, global metadata) abort a run before any
// worker starts. Per-task errors (sidecar, transport, status, routing) are
// confined to the task that raised them.
package forklift

import (
	"errors"
	"fmt"
)

// EnumerationError is returned when the input directory cannot be read.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("cannot enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// MetadataSource identifies where a metadata document came from.
type MetadataSource string

const (
	SourceGlobalFile   MetadataSource = "metadata-file"
	SourceGlobalInline MetadataSource = "metadata"
	SourceSidecar      MetadataSource = "sidecar"
)

// MetadataError reports a metadata document that could not be read or parsed.
// Global sources are fatal; sidecar errors only affect one task.
type MetadataError struct {
	Source MetadataSource
	Path   string
	Err    error
}

func (e *MetadataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid %s %s: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Source, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// TransportError is a failed upload where no HTTP response was received.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upload failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a failed upload where the last response was not 2xx.
type StatusError struct {
	Attempts   int
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upload rejected with status %d after %d attempt(s)", e.StatusCode, e.Attempts)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// RoutingError is a file that could not be moved to its destination.
type RoutingError struct {
	Path string
	Dest string
	Err  error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("cannot move %s to %s: %v", e.Path, e.Dest, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the run before work starts.
func IsFatal(err error) bool {
	var enumErr *EnumerationError
	if errors.As(err, &enumErr) {
		return true
	}
	var metaErr *MetadataError
	if errors.As(err, &metaErr) {
		return metaErr.Source != SourceSidecar
	}
	return false
}
