package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is the production Logger, backed by a zap console core.
type ZapLogger struct {
	internal *zap.Logger
}

// NewZapLogger builds a ZapLogger writing plain-text logs to stdout at the
// given minimum level.
func NewZapLogger(level zapcore.Level) *ZapLogger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		level,
	)

	return &ZapLogger{internal: zap.New(core)}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.internal.Debug(msg, convertFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.internal.Info(msg, convertFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.internal.Warn(msg, convertFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.internal.Error(msg, convertFields(fields)...)
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() {
	_ = l.internal.Sync()
}

func convertFields(fields []Field) []zap.Field {
	converted := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		converted = append(converted, zap.Any(f.Key, f.Value))
	}
	return converted
}
