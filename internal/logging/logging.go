// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelDebug logs every rewritten dependency.
	LevelDebug = "debug"

	// LevelInfo logs one line per manifest.
	LevelInfo = "info"

	// LevelNone disables logging.
	LevelNone = "none"
)

// Levels lists the accepted level names.
var Levels = []string{LevelDebug, LevelInfo, "warn", "error", LevelNone}

// New returns a console logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == LevelNone {
		return zap.NewNop(), nil
	}
	if level == "" {
		level = LevelInfo
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q, accepted values: %s", level, strings.Join(Levels, "|"))
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	cfg.Sampling = nil
	return cfg.Build()
}
