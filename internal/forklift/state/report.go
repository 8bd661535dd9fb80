// Package state records per-task outcomes of a run and writes them to a
// CSV report.
package state

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dart-platform/dart-cli/internal/models"
)

var header = []string{"index", "file", "outcome", "status_code", "attempts", "destination", "message", "finished_at"}

// Row is one line of the report.
type Row struct {
	Index       int
	File        string
	Outcome     string
	StatusCode  int
	Attempts    int
	Destination string
	Message     string
	FinishedAt  time.Time
}

// Report collects results from concurrent workers.
type Report struct {
	filePath string
	rows     map[int]Row // Index -> Row
	mu       sync.RWMutex
}

// NewReport creates a report that Save writes to filePath.
func NewReport(filePath string) *Report {
	return &Report{
		filePath: filePath,
		rows:     make(map[int]Row),
	}
}

// Record stores the result for a task, replacing any earlier row.
func (r *Report) Record(res models.Result) {
	finished := res.Outcome.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[res.Task.Index] = Row{
		Index:       res.Task.Index,
		File:        res.Task.FilePath,
		Outcome:     res.Outcome.Kind.String(),
		StatusCode:  res.Outcome.StatusCode,
		Attempts:    res.Outcome.Attempts,
		Destination: res.Outcome.Destination,
		Message:     res.Outcome.Message,
		FinishedAt:  finished,
	}
}

// Rows returns all rows sorted by index.
func (r *Report) Rows() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows
}

// CountByOutcome counts rows with the given outcome name.
func (r *Report) CountByOutcome(outcome string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, row := range r.rows {
		if row.Outcome == outcome {
			count++
		}
	}
	return count
}

// Save writes the report to its CSV file (atomic write).
func (r *Report) Save() error {
	rows := r.Rows()

	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tempFile := r.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			file.Close()
			os.Remove(tempFile)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Index),
			row.File,
			row.Outcome,
			strconv.Itoa(row.StatusCode),
			strconv.Itoa(row.Attempts),
			row.Destination,
			row.Message,
			row.FinishedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write report record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush report writer: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp report file: %w", err)
	}

	if err := os.Rename(tempFile, r.filePath); err != nil {
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	success = true
	return nil
}
