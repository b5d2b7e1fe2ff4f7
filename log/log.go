// Package log provides the logging utilities used by the build pipeline
// and the zigdag CLI.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Default is the package-wide logger. Replace it with any type
// implementing Logger, e.g. in tests that want to capture output.
var Default Logger = zap.New(
	zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	),
	zap.AddCaller(),
	zap.AddCallerSkip(1),
).Sugar()

// SetLevel sets the log level. Valid levels are debug, info, warn, error,
// fatal; anything else defaults to info.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		zapLevel.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	case LevelFatal:
		zapLevel.SetLevel(zapcore.FatalLevel)
	default:
		zapLevel.SetLevel(zapcore.InfoLevel)
	}
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger is the interface Default satisfies. Build-pipeline code depends
// on this rather than on *zap.SugaredLogger directly.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

// WithBuildID returns a Logger that adds a build_id field carrying the
// build correlation id to every message, used to tag every log line
// emitted during one invocation of the build pipeline.
func WithBuildID(buildID string) Logger {
	if sugared, ok := Default.(*zap.SugaredLogger); ok {
		return sugared.With("build_id", buildID)
	}
	return Default
}

func Debug(args ...any)                 { Default.Debug(args...) }
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }
func Info(args ...any)                  { Default.Info(args...) }
func Infof(format string, args ...any)  { Default.Infof(format, args...) }
func Warn(args ...any)                  { Default.Warn(args...) }
func Warnf(format string, args ...any)  { Default.Warnf(format, args...) }
func Error(args ...any)                 { Default.Error(args...) }
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }
func Fatal(args ...any)                 { Default.Fatal(args...) }
func Fatalf(format string, args ...any) { Default.Fatalf(format, args...) }
