// Package logging builds the logr loggers used across the emulator.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Verbosity levels for logger.V.
const (
	DEBUG = 1
	TRACE = 2
)

// NewLogger returns a zap-backed logger. Development loggers are
// human-readable and log up to TRACE; production loggers are JSON at info.
// A logger that cannot be built falls back to logr.Discard.
func NewLogger(development bool) logr.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-1 * TRACE))
	}
	z, err := cfg.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(z)
}

// NewTestLogger returns a logger writing through t.Log at TRACE.
func NewTestLogger(t zaptest.TestingT) logr.Logger {
	return zapr.NewLogger(zaptest.NewLogger(t, zaptest.Level(zapcore.Level(-1*TRACE))))
}
