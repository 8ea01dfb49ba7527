package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig describes a rotating log file.
type LogConfig struct {
	LogFile    string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func defaultLogConfig(path string) LogConfig {
	return LogConfig{
		LogFile:    path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid --log-level %q (expected debug|info|warn|error)", s)
	}
	return level, nil
}

// newLogger builds a text logger. With an empty cfg.LogFile it writes to
// stderr; otherwise to a rotating file that the returned closer releases.
func newLogger(level slog.Level, cfg LogConfig) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		w, closer = rotating, rotating
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

// setupLogging installs the stderr logger for every command. The lsp command
// replaces it once the configuration names a log file.
func setupLogging(cmd *cobra.Command, _ []string) error {
	levelFlag, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := parseLogLevel(levelFlag)
	if err != nil {
		return err
	}
	logger, _, err := newLogger(level, LogConfig{})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
