package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production uses JSON output; anything else
// gets the human-readable development encoder.
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// Must is New that panics; used from main before anything else can log.
func Must(production bool) *zap.Logger {
	l, err := New(production)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}
