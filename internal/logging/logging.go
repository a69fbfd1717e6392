// Package logging provides the diagnostics log shared by every equipctl component.
// Entries go to a file so that command output on stdout stays clean.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu         sync.RWMutex
	log        = zap.NewNop().Sugar()
	baseLogger = zap.NewNop()
)

// Init initializes the package-level logger writing JSON lines to logFile.
// An empty logFile discards every entry.
func Init(debug bool, logFile string) error {
	if logFile == "" {
		Replace(zap.NewNop())
		return nil
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	Replace(zapLogger)
	return nil
}

// Replace swaps the package-level logger. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	baseLogger = l
	log = l.Sugar()
}

// Get returns the sugared logger instance.
func Get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// GetZapLogger returns the base zap logger.
func GetZapLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Get().Sync()
}

func Debugw(msg string, keysAndValues ...any) {
	Get().Debugw(msg, keysAndValues...)
}

func Infow(msg string, keysAndValues ...any) {
	Get().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...any) {
	Get().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...any) {
	Get().Errorw(msg, keysAndValues...)
}
