// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger builds the zap logger shared by every component.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// level is shared by every logger built by NewLogger so SetLevel can
// adjust a running process.
var level = zap.NewAtomicLevel()

// NewLogger creates a zap logger for the given environment.
// prod uses JSON output, dev uses console output. levelOverride (if
// non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "", "local", "dev":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	// CLI output goes to stdout; keep logs on stderr.
	cfg.OutputPaths = []string{"stderr"}

	lvl := cfg.Level.Level()
	if len(levelOverride) > 0 && levelOverride[0] != "" {
		parsed, err := parseLevel(levelOverride[0])
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	level.SetLevel(lvl)
	cfg.Level = level

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// SetLevel changes the level of every logger built by NewLogger.
func SetLevel(s string) error {
	lvl, err := parseLevel(s)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
