// Package logging builds the zap logger used across the application.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iwvelando/weight-balance/internal/config"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ParseLevel converts a configured level name into a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// New creates a zap logger based on configuration and CLI override. The
// override takes precedence over the configured level. When an output file
// is configured, logs go through a rotating lumberjack writer instead of
// stderr.
func New(loggingConfig config.LoggingConfig, levelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if levelOverride != "" {
		level = levelOverride
	}
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	format := loggingConfig.Format
	if format == "" {
		format = FormatJSON
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	switch format {
	case FormatConsole:
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case FormatJSON:
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	sink, err := writer(loggingConfig)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(zapLevel))
	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(sink)}
	if format == FormatConsole {
		opts = append(opts, zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

func writer(loggingConfig config.LoggingConfig) (zapcore.WriteSyncer, error) {
	if loggingConfig.OutputFile == "" {
		return zapcore.Lock(os.Stderr), nil
	}

	// Ensure the directory exists
	if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	// Test if we can create/write to the file
	file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
	}
	_ = file.Close()

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   loggingConfig.OutputFile,
		MaxSize:    loggingConfig.MaxSizeMB,
		MaxBackups: loggingConfig.MaxBackups,
		MaxAge:     loggingConfig.MaxAgeDays,
		Compress:   true,
	}), nil
}
