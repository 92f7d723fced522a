package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
)

// slogLogger adapts *slog.Logger to Logger. Args are slog key/value pairs.
type slogLogger struct {
	logger *slog.Logger
}

// NewConsoleLogger creates a logger writing text records to stdout.
func NewConsoleLogger(level string) Logger {
	return newWithWriter(os.Stdout, level, false)
}

// NewFileLogger creates a JSON logger writing to a size-rotated file.
func NewFileLogger(level string, filePath string, maxSize int, maxBackups int, maxAge int) Logger {
	writer := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}

	return newWithWriter(writer, level, true)
}

// NewWriterLogger is used by tests and by the CLI to capture output.
func NewWriterLogger(w io.Writer, level string) Logger {
	return newWithWriter(w, level, false)
}

func newWithWriter(w io.Writer, level string, json bool) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &slogLogger{logger: slog.New(handler)}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Fatal logs at error level and exits.
func (l *slogLogger) Fatal(msg string, args ...any) {
	l.logger.Error(msg, args...)
	os.Exit(1)
}

// Nop discards everything; handy in tests.
func Nop() Logger {
	return newWithWriter(io.Discard, "error", false)
}
