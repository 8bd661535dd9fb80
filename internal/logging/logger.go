// Package logging provides structured logging for the CLI.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// Logger wraps zerolog with a swappable console writer.
//
// Progress and failure diagnostics share one stream (stdout by default) so
// that redirecting the CLI output captures the whole run.
type Logger struct {
	mu     sync.RWMutex
	zlog   zerolog.Logger
	output io.Writer
}

// NewLogger creates a logger writing human-readable lines to w.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{}
	l.SetOutput(w)
	return l
}

// NewDefaultCLILogger creates a logger writing to stdout.
func NewDefaultCLILogger() *Logger {
	return NewLogger(os.Stdout)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

func (l *Logger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	z := l.zlog
	return &z
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.logger().Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.logger().Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.logger().Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.logger().Warn()
}

// With creates a child context.
func (l *Logger) With() zerolog.Context {
	return l.logger().With()
}

// WithStr returns a child logger that stamps every line with key=value.
func (l *Logger) WithStr(key, value string) *Logger {
	child := l.With().Str(key, value).Logger()
	return &Logger{zlog: child, output: l.Output()}
}

// SetOutput changes the output writer for the logger.
// Used to route log lines through the progress container while bars are live.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.zlog = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
	}).With().Timestamp().Logger()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.output
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
