package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nilreef/ctxengine/internal/engineconfig"
)

// buildLogger constructs a zap logger at the level named in cfg.Log.Level,
// using info for an empty value; an unrecognized value is an error.
func buildLogger(cfg *engineconfig.Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("ctxengine: log level %q: %w", level, err)
	}
	return l, nil
}
