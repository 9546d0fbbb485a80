package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

// Init builds the global logger. Safe to call more than once.
func Init(level string, development bool) {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      development,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := config.Build()

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		log = zap.NewExample().Sugar()
		log.Warnw("failed to initialize custom logger, using fallback", "error", err)
		return
	}
	log = built.Sugar()
}

// L returns the global logger, falling back to a no-op logger before Init.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

func Debug(msg string, keysAndValues ...interface{}) {
	L().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	L().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	L().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	L().Errorw(msg, keysAndValues...)
}

func Fatal(msg string, err error) {
	L().Fatalw(msg, "error", err)
}

func Sync() {
	_ = L().Sync()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
