package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level      slog.Level
	Format     string // text or json
	File       string // empty logs to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func loadLogConfig() (LogConfig, error) {
	lc := LogConfig{
		Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		File:   getEnv("LOG_FILE", ""),
	}

	if err := lc.Level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return LogConfig{}, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	if lc.Format != "text" && lc.Format != "json" {
		return LogConfig{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", lc.Format)
	}

	var err error
	if lc.MaxSizeMB, err = envInt("LOG_MAX_SIZE_MB", 100); err != nil {
		return LogConfig{}, err
	}
	if lc.MaxBackups, err = envInt("LOG_MAX_BACKUPS", 3); err != nil {
		return LogConfig{}, err
	}
	if lc.MaxAgeDays, err = envInt("LOG_MAX_AGE_DAYS", 28); err != nil {
		return LogConfig{}, err
	}
	return lc, nil
}

// NewLogger builds the process logger. When File is set, output goes to a
// size-rotated file instead of stdout.
func (lc LogConfig) NewLogger() *slog.Logger {
	var w io.Writer = os.Stdout
	if lc.File != "" {
		w = &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: lc.Level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
