// Package logger builds the zap logger used across the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

// New returns a human-friendly development logger for local and dev environments
// and a JSON production logger otherwise.
func New(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)

	switch env {
	case envLocal, envDev:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		log, err = cfg.Build()
	default:
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		log, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}

	return log
}
