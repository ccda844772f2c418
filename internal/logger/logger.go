// Package logger wraps zap construction behind a small helper so that the
// rest of the application only deals with a configured *zap.Logger.
package logger

import (
	"go.uber.org/zap"
)

// Logger carries the configured zap logger.
type Logger struct {
	// Log is the underlying zap logger. Valid after Init.
	Log *zap.Logger
}

// New returns an uninitialized Logger with a no-op zap logger so that it is
// safe to use before Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init configures the logger at the given level ("debug", "info", "warn",
// "error"). Returns an error if the level is unknown or construction fails.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = logger
	return nil
}
