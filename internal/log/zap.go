package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds the diagnostic logger. Output goes to stderr so it never
// mixes with interview text on stdout.
func NewZap(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
