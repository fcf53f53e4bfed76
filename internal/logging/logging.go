// Package logging holds the process-wide diagnostic logger. Reports and
// user-facing messages are not logged; they go to stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init, at warn level on stderr.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init configures level and outputs. Diagnostics always go to stderr and,
// when filePath is set, are appended to that file too. An unknown level
// falls back to warn. The returned closer releases the log file.
func Init(levelStr string, filePath string) (io.Closer, error) {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.WarnLevel
	}
	Log.SetLevel(level)

	writers := []io.Writer{os.Stderr}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closer = file
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
