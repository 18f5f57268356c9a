// Package log wraps a zap SugaredLogger behind package-level helpers.
package log

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// current starts as a no-op logger so packages can log before Init runs (tests, CLI subcommands).
var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

func sugar() *zap.SugaredLogger {
	return current.Load()
}

// Init builds the process logger.
// format "console" selects the development encoder, anything else emits JSON.
func Init(level, format, outputPath string) {
	var zapConfig zap.Config

	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	encoding := "json"
	if format == "console" {
		encoding = "console"
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.Level = logLevel
	zapConfig.Encoding = encoding
	// stderr keeps stdout free for `ask` output and the MCP stdio transport.
	zapConfig.OutputPaths = []string{"stderr"}
	if outputPath != "" {
		_ = os.MkdirAll(outputPath, os.ModePerm)
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, outputPath+"/app.log")
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	current.Store(logger.Sugar())
}

// Info logs at info level.
func Info(msg string) {
	sugar().Info(msg)
}

// Infof logs a formatted message at info level.
func Infof(template string, args ...interface{}) {
	sugar().Infof(template, args...)
}

// Infow logs a message with structured key/value pairs.
// Prefer it whenever the context is richer than a single value.
func Infow(msg string, keysAndValues ...interface{}) {
	sugar().Infow(msg, keysAndValues...)
}

func Debugf(template string, args ...interface{}) {
	sugar().Debugf(template, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...interface{}) {
	sugar().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar().Warnw(msg, keysAndValues...)
}

// Error logs msg at error level with err attached.
func Error(msg string, err error) {
	sugar().Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar().Errorf(template, args...)
}

// Fatal logs msg with err attached and exits.
func Fatal(msg string, err error) {
	sugar().Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar().Fatalf(template, args...)
}

// ReplaceLogger installs l and returns a function restoring the previous logger.
func ReplaceLogger(l *zap.Logger) func() {
	prev := current.Swap(l.Sugar())
	return func() { current.Store(prev) }
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = sugar().Sync()
}
