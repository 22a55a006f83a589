// Package logger wraps zerolog with context-aware request IDs, buffered
// output, and file rotation.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// contextKey is the type for context keys
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LoggerKey is the context key for logger
	LoggerKey contextKey = "logger"
)

var (
	globalLogger zerolog.Logger
	globalWriter *SmartWriter
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// InitWithFile initializes the logger with rotating file output.
// When enableConsole is true, logs are also mirrored to stdout.
func InitWithFile(filename string, level string, format string, enableConsole bool) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}

	logFile := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var output io.Writer = logFile
	if enableConsole {
		output = io.MultiWriter(os.Stdout, logFile)
	}

	Init(Config{
		Level:  level,
		Format: format,
		Output: output,
	})
}

// Init initializes the global logger
func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// SmartWriter buffers output and flushes periodically, or immediately
	// on error/fatal records, preserving log order.
	sw := NewSmartWriter(output, 1*time.Second)
	globalWriter = sw
	output = sw

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		// Keep the last two path segments (e.g. usecase/round_uc.go)
		short := file
		count := 0
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				count++
				short = file[i+1:]
				if count == 2 {
					break
				}
			}
		}
		return fmt.Sprintf("%s:%d", short, line)
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "2006-01-02 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-7s", i))
			},
			FormatCaller: func(i interface{}) string {
				return fmt.Sprintf("%-20s", i)
			},
			PartsOrder: []string{
				zerolog.TimestampFieldName,
				zerolog.LevelFieldName,
				zerolog.CallerFieldName,
				zerolog.MessageFieldName,
			},
		}
		logger = zerolog.New(consoleWriter).With().Timestamp().Caller().Logger()
	} else {
		logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	}

	globalLogger = logger
}

// Flush forces all buffered logs to be written to the underlying writer
func Flush() {
	if globalWriter != nil {
		_ = globalWriter.Sync()
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithRequestID creates a new context carrying the request ID and a logger
// pre-tagged with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := globalLogger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, LoggerKey, &logger)
	return ctx
}

// FromContext extracts the logger from context, falling back to the global
// logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if logger, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger := globalLogger.With().Str("request_id", requestID).Logger()
		return &logger
	}
	return &globalLogger
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithFields adds fields to the context logger
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	logger := FromContext(ctx)

	event := logger.With()
	for k, v := range fields {
		event = event.Interface(k, v)
	}

	newLogger := event.Logger()
	return context.WithValue(ctx, LoggerKey, &newLogger)
}

// Debug logs a debug message
func Debug(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Debug()
}

// Info logs an info message
func Info(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Info()
}

// Warn logs a warning message
func Warn(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Warn()
}

// Error logs an error message
func Error(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Error()
}

// Fatal logs a fatal message and exits
func Fatal(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Fatal()
}

// DebugGlobal logs a debug message without context
func DebugGlobal() *zerolog.Event {
	return globalLogger.Debug()
}

// InfoGlobal logs an info message without context
func InfoGlobal() *zerolog.Event {
	return globalLogger.Info()
}

// WarnGlobal logs a warning message without context
func WarnGlobal() *zerolog.Event {
	return globalLogger.Warn()
}

// ErrorGlobal logs an error message without context
func ErrorGlobal() *zerolog.Event {
	return globalLogger.Error()
}

// FatalGlobal logs a fatal message and exits
func FatalGlobal() *zerolog.Event {
	return globalLogger.Fatal()
}
