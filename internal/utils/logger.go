// Package utils provides logging and parsing helpers for the valuation engine.
package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance. Read it through GetLogger from
// code that may run before InitLogger.
var Logger *zap.Logger

var loggerMu sync.Mutex

// ParseLevel maps a textual log level to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// InitLogger initializes the global logger.
func InitLogger(level string) error {
	logger, err := buildLogger(level)
	if err != nil {
		return err
	}

	loggerMu.Lock()
	Logger = logger
	loggerMu.Unlock()
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	zapLevel := ParseLevel(level)

	// JSON output on Lambda, colored console output everywhere else
	isLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	var config zap.Config
	if isLambda {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config.Build()
}

// GetLogger returns the global logger, initializing if necessary. It is
// safe for concurrent use.
func GetLogger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if Logger == nil {
		logger, err := buildLogger("info")
		if err != nil {
			logger = zap.NewNop()
		}
		Logger = logger
	}
	return Logger
}

// SetLogger replaces the global logger. Tests use it to install zap.NewNop
// or an observer core.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	Logger = l
	loggerMu.Unlock()
}

// Sync flushes any buffered log entries.
func Sync() {
	loggerMu.Lock()
	logger := Logger
	loggerMu.Unlock()

	if logger != nil {
		_ = logger.Sync()
	}
}

// LogField creates a zap field for structured logging.
type LogField = zap.Field

// Common field constructors
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)
