// Package models holds the data types shared across the upload pipeline.
package models

import (
	"fmt"
	"strings"
	"time"
)

// UploadTask is one file scheduled for upload.
// Tasks are immutable once enumerated and are consumed by exactly one worker.
type UploadTask struct {
	Index    int    // discovery order, starting at 0
	FilePath string // path of the file to upload
	MetaPath string // sidecar path, empty when sidecar detection is off
}

// HasSidecar reports whether a sidecar path was derived for the task.
func (t UploadTask) HasSidecar() bool {
	return t.MetaPath != ""
}

// Metadata is the per-file metadata document sent with a multipart upload.
type Metadata map[string]interface{}

// Format selects how a file is encoded in the upload request.
type Format string

const (
	// FormatMultipart sends the file as a multipart "file" part, plus an
	// optional "metadata" part.
	FormatMultipart Format = "multipart"
	// FormatJSON sends the file contents, which must be valid JSON, as the body.
	FormatJSON Format = "json"
	// FormatText sends the file contents verbatim as text/plain.
	FormatText Format = "text"
)

// ParseFormat maps a user-supplied format name to a Format.
// "binary" and "file" are accepted as aliases of multipart.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multipart", "binary", "file":
		return FormatMultipart, nil
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported upload format %q (want json, multipart or text)", s)
	}
}

// OutcomeKind is the terminal state of a task.
type OutcomeKind int

const (
	// Succeeded means the service answered 2xx.
	Succeeded OutcomeKind = iota
	// Failed means attempts were exhausted or the file could not be sent.
	Failed
	// Cancelled means the run was interrupted before the task finished.
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing one task.
type Outcome struct {
	Kind        OutcomeKind
	Message     string
	StatusCode  int   // last HTTP status seen, 0 when no response arrived
	Attempts    int   // POSTs made
	Err         error // underlying error for failures, nil on success
	Destination string
	FinishedAt  time.Time
}

// Success builds a succeeded outcome.
func Success(status, attempts int) Outcome {
	return Outcome{
		Kind:       Succeeded,
		Message:    fmt.Sprintf("posted (status %d)", status),
		StatusCode: status,
		Attempts:   attempts,
	}
}

// Failure builds a failed outcome from an error.
func Failure(err error, status, attempts int) Outcome {
	msg := "upload failed"
	if err != nil {
		msg = err.Error()
	}
	return Outcome{
		Kind:       Failed,
		Message:    msg,
		StatusCode: status,
		Attempts:   attempts,
		Err:        err,
	}
}

// Cancellation builds a cancelled outcome.
func Cancellation(err error, attempts int) Outcome {
	return Outcome{
		Kind:     Cancelled,
		Message:  "cancelled before completion",
		Attempts: attempts,
		Err:      err,
	}
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Kind == Succeeded
}

// Result pairs a task with its outcome.
type Result struct {
	Task    UploadTask
	Outcome Outcome
}
