// Package logging provides pre-configured logrus loggers for scanwatch
// components.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger returns the logger for a component, creating it on first use.
// Level comes from SCANWATCH_LOG_LEVEL (default info). Output is
// human-readable text on a TTY and JSON otherwise, so piped output stays
// machine-parseable. SCANWATCH_LOG_FILE adds a file sink.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	logger := logrus.New()

	level, err := logrus.ParseLevel(os.Getenv("SCANWATCH_LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	writers := []io.Writer{os.Stderr}
	if path := os.Getenv("SCANWATCH_LOG_FILE"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				writers = append(writers, file)
			} else {
				logger.Warnf("Failed to open log file %s: %v", path, err)
			}
		}
	}

	if len(writers) == 1 {
		logger.SetOutput(writers[0])
	} else {
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
