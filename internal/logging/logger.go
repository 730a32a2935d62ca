// Package logging provides categorized logging helpers for planforge.
// Subsystems log through package-level helpers (Pipeline, Generation, Wave)
// so call sites stay terse; everything funnels into one zap core.
//
// Validation rules deliberately have no logging dependency: their findings
// come back as adjustment records, not log lines.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category labels a log line with its originating subsystem.
type Category string

const (
	CategoryPipeline   Category = "pipeline"   // phase machine transitions
	CategoryGeneration Category = "generation" // LLM calls, retries, cost
	CategoryWave       Category = "wave"       // wave executor scheduling
	CategoryContext    Category = "context"    // context building
	CategoryUsage      Category = "usage"      // token/cost accounting
	CategoryConfig     Category = "config"     // configuration loading
)

var (
	mu    sync.RWMutex
	base  = zap.NewNop().Sugar()
	debug bool
)

// Initialize builds the process-wide logger. With debugMode the level drops
// to Debug and the console encoder is used; otherwise Info/JSON.
func Initialize(debugMode bool) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debugMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	base = logger.Sugar()
	debug = debugMode
	mu.Unlock()
	return nil
}

// SetLogger swaps in a custom zap logger. Used by tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	base = l.Sugar()
	mu.Unlock()
}

// IsDebugMode reports whether debug logging is enabled.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}

func logf(cat Category, level zapcore.Level, format string, args ...any) {
	mu.RLock()
	l := base.With("cat", string(cat))
	mu.RUnlock()

	switch level {
	case zapcore.DebugLevel:
		l.Debugf(format, args...)
	case zapcore.WarnLevel:
		l.Warnf(format, args...)
	case zapcore.ErrorLevel:
		l.Errorf(format, args...)
	default:
		l.Infof(format, args...)
	}
}

// Pipeline logs pipeline phase activity.
func Pipeline(format string, args ...any) { logf(CategoryPipeline, zapcore.InfoLevel, format, args...) }

// PipelineDebug logs verbose pipeline detail.
func PipelineDebug(format string, args ...any) {
	logf(CategoryPipeline, zapcore.DebugLevel, format, args...)
}

// PipelineError logs pipeline failures.
func PipelineError(format string, args ...any) {
	logf(CategoryPipeline, zapcore.ErrorLevel, format, args...)
}

// Generation logs LLM call activity.
func Generation(format string, args ...any) {
	logf(CategoryGeneration, zapcore.InfoLevel, format, args...)
}

// GenerationDebug logs request/response detail for LLM calls.
func GenerationDebug(format string, args ...any) {
	logf(CategoryGeneration, zapcore.DebugLevel, format, args...)
}

// GenerationWarn logs retryable LLM call trouble.
func GenerationWarn(format string, args ...any) {
	logf(CategoryGeneration, zapcore.WarnLevel, format, args...)
}

// Wave logs wave executor scheduling.
func Wave(format string, args ...any) { logf(CategoryWave, zapcore.InfoLevel, format, args...) }

// WaveDebug logs per-task scheduling detail.
func WaveDebug(format string, args ...any) { logf(CategoryWave, zapcore.DebugLevel, format, args...) }

// Context logs context-builder activity.
func Context(format string, args ...any) { logf(CategoryContext, zapcore.DebugLevel, format, args...) }

// Usage logs cost accounting events.
func Usage(format string, args ...any) { logf(CategoryUsage, zapcore.DebugLevel, format, args...) }

// Config logs configuration loading.
func Config(format string, args ...any) { logf(CategoryConfig, zapcore.DebugLevel, format, args...) }

// Timer measures an operation's duration and logs it on Stop.
type Timer struct {
	cat   Category
	op    string
	start time.Time
}

// StartTimer begins timing an operation within a category.
func StartTimer(cat Category, op string) *Timer {
	return &Timer{cat: cat, op: op, start: time.Now()}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() {
	logf(t.cat, zapcore.DebugLevel, "%s took %v", t.op, time.Since(t.start))
}
