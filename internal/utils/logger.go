package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const standardErrorSink = "stderr"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// Diagnostics go to standard error so that standard output carries only the tool report.
func NewApplicationLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.OutputPaths = []string{standardErrorSink}
	config.ErrorOutputPaths = []string{standardErrorSink}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}
