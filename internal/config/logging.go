package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger creates the process logger: JSON to stdout and, when a log
// file is configured, JSON to a rotated file as well.
// The returned cleanup closes the file.
func SetupLogger(cfg LogConfig) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	stdoutHandler := slog.NewJSONHandler(os.Stdout, opts)

	if cfg.File == "" {
		return slog.New(stdoutHandler), func() error { return nil }
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		logger := slog.New(stdoutHandler)
		logger.Error("failed to create log directory, using stdout only", "error", err, "file", cfg.File)
		return logger, func() error { return nil }
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	cleanup := func() error {
		if err := fileWriter.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		return nil
	}
	return newFanoutLogger(os.Stdout, fileWriter, cfg.Level), cleanup
}

// newFanoutLogger writes every record as JSON to both writers.
func newFanoutLogger(stdout, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(stdout, opts),
		slog.NewJSONHandler(file, opts),
	))
}
