// Package logging builds the zap logger shared by the CLI and every
// compiler stage. A single *zap.Logger is constructed once in cmd/umsc and
// threaded down as a *zap.SugaredLogger; packages do not build configured
// loggers of their own (a constructor handed a nil logger falls back to
// zap's no-op logger).
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names the supported logging verbosities (spec ambient-stack
// logging section).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Options configures the constructed logger.
type Options struct {
	Level      Level
	JSONFormat bool
}

// New builds a *zap.Logger from opts. JSONFormat selects the production
// JSON encoder (suitable for piping into log aggregation); otherwise a
// human-readable console encoder is used.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.JSONFormat {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func parseLevel(l Level) (zapcore.Level, error) {
	switch l {
	case "", LevelInfo:
		return zapcore.InfoLevel, nil
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", l)
	}
}
