// Package logging builds the mixer's structured logger.
//
// Grounded on Raikerian's internal/infrastructure/module.go NewZapLogger,
// which selects a zap.Config by level name; this drops the fx lifecycle
// wiring (this repo has no DI container) but keeps the same level-name
// switch and zap.Config.Build call.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a *zap.Logger for levelName (one of "debug", "info", "warn",
// "error"; anything else falls back to "info").
func New(levelName string) (*zap.Logger, error) {
	var cfg zap.Config
	switch levelName {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	case "warn":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return logger, nil
}
