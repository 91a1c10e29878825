// Package logger builds the zap logger the rest of the app writes to.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"daybook/internal/config"
)

// New builds a sugared logger from cfg. The terminal belongs to the UI, so
// "stdout" output is only honoured when asked for explicitly; anything else
// without a filename discards logs.
func New(cfg config.LogConfig) (*zap.SugaredLogger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	switch {
	case cfg.Output == "file" && cfg.Filename != "":
		zc.OutputPaths = []string{cfg.Filename}
		zc.ErrorOutputPaths = []string{cfg.Filename}
	case cfg.Output == "stdout" || cfg.Output == "stderr":
		zc.OutputPaths = []string{cfg.Output}
		zc.ErrorOutputPaths = []string{"stderr"}
	default:
		return zap.NewNop().Sugar(), nil
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l.Sugar(), nil
}
