// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// New returns a logger for cfg. Mode "production" (or "prod") writes JSON;
// anything else writes human-readable console output. When cfg.Dir is set
// the logger also appends to a file named for the current day.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(cfg.Mode) {
	case "prod", "production":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, DailyFile(cfg.Dir, time.Now()))
	}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// DailyFile returns the log file path for day: dir/essay-YYYY-MM-DD.log.
func DailyFile(dir string, day time.Time) string {
	return filepath.Join(dir, "essay-"+day.Format("2006-01-02")+".log")
}

func parseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
