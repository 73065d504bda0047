// Package logger configures charmbracelet/log loggers shared across the engine.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger with the given prefix writing to stderr.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		Level:           log.GetLevel(),
	})
}

// Init sets the process-wide log level and optionally mirrors output to a file.
// Unknown level strings fall back to info.
func Init(logfilePath string, levelStr string) error {
	switch strings.ToLower(levelStr) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	if logfilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logfilePath), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(logfilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.Default().SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return nil
}
