// Package logging provides categorized zap loggers for ttarchive.
// The root command builds one base logger and calls Initialize; packages
// then fetch a named logger per category with Get.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryConvert Category = "convert" // Spreadsheet and CSV conversion
	CategoryFixture Category = "fixture" // Fixture rewrites
	CategoryBench   Category = "bench"   // Benchmark runs
	CategorySim     Category = "sim"     // DAG construction and computation
	CategoryCompare Category = "compare" // Result comparison
	CategoryStore   Category = "store"   // History database and result archive
)

var (
	mu         sync.RWMutex
	base       *zap.Logger
	categories map[string]bool
	loggers    = make(map[Category]*zap.SugaredLogger)
)

// Initialize installs the base logger. A category mapped to false in
// enabled gets a no-op logger; unlisted categories are enabled.
func Initialize(logger *zap.Logger, enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	categories = enabled
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Reset drops the base logger. Get returns no-op loggers afterwards.
func Reset() {
	Initialize(nil, nil)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return isEnabled(category)
}

func isEnabled(category Category) bool {
	if base == nil {
		return false
	}
	enabled, exists := categories[string(category)]
	return !exists || enabled
}

// Get returns the logger for a category. It never returns nil.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if !isEnabled(category) {
		l = zap.NewNop().Sugar()
	} else {
		l = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// Build creates the base logger from a level name and an encoding
// ("json" or "console"). verbose forces the debug level.
func Build(level, format string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
