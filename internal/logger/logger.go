// Package logger builds the process logger from configuration.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/config"
)

// New creates a logrus logger with the configured level, format and
// output.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	output, err := getOutput(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to set output: %w", err)
	}
	logger.SetOutput(output)

	return logger, nil
}

func getOutput(output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	}
}
