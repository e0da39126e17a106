package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(path string, level log.Level) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		f.Close()
	}

	return NewWithLevel(f, level), cleanup, nil
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ConversionStarted logs the start of a batch conversion
func (l *Logger) ConversionStarted(root, direction string) {
	l.Info("conversion started",
		"root", root,
		"direction", direction)
}

// ConversionCompleted logs the completion of a batch conversion
func (l *Logger) ConversionCompleted(filesProcessed int, errors int, duration time.Duration) {
	l.Info("conversion completed",
		"files_converted", filesProcessed,
		"errors", errors,
		"duration", duration.Round(time.Millisecond))
}

// FileWritten logs a successfully converted file
func (l *Logger) FileWritten(source, dest string, blocks int) {
	l.Info("file written",
		"source", source,
		"dest", dest,
		"blocks", blocks)
}

// ConversionFailed logs a conversion error
func (l *Logger) ConversionFailed(source string, err error) {
	l.Error("conversion failed",
		"source", source,
		"error", err)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// Skipped logs when a file is skipped
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// WatchStarted logs the start of a watch loop
func (l *Logger) WatchStarted(root string, debounce time.Duration) {
	l.Info("watching for changes",
		"root", root,
		"debounce", debounce)
}

// ToolCalled logs a tool invocation on the tool server
func (l *Logger) ToolCalled(tool string, inputBytes int) {
	l.Debug("tool called",
		"tool", tool,
		"input_bytes", inputBytes)
}
