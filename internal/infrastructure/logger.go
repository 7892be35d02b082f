package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"costsheet/internal/config"
)

// logState owns the process logger and the file it may be writing to.
type logState struct {
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

var global logState

// InitializeLogger builds the process logger from cfg and installs it as
// the slog default. Only the first call configures anything; later calls
// return the logger already in place.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.logger != nil {
		return global.logger, nil
	}

	w, file, err := logOutput(cfg)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		AddSource: cfg.Development,
		Level:     parseLogLevel(cfg.Level),
	}
	global.logger = slog.New(&contextHandler{Handler: newHandler(w, cfg.Format, opts)})
	global.file = file
	slog.SetDefault(global.logger)
	return global.logger, nil
}

// GetLogger returns the process logger, falling back to slog.Default
// before InitializeLogger has run.
func GetLogger() *slog.Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.logger == nil {
		return slog.Default()
	}
	return global.logger
}

// NewLogger returns a standalone JSON logger on w. The process logger is
// left alone, which makes it suitable for the CLI and for tests.
func NewLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	return slog.New(&contextHandler{Handler: slog.NewJSONHandler(w, opts)})
}

// CloseLogFile flushes and closes the log file opened by InitializeLogger.
func CloseLogFile() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.file == nil {
		return nil
	}
	err := global.file.Close()
	global.file = nil
	return err
}

// ResetLoggerForTesting drops the process logger so the next
// InitializeLogger call configures a fresh one.
func ResetLoggerForTesting() {
	_ = CloseLogFile()

	global.mu.Lock()
	global.logger = nil
	global.mu.Unlock()
}

// WithComponent tags every record from logger with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithError attaches err to logger. A nil error returns logger unchanged.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// logOutput resolves the configured destination. Console output is stderr
// so command results printed on stdout stay machine-readable.
func logOutput(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return os.Stderr, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	if mode == "both" {
		return io.MultiWriter(os.Stderr, file), file, nil
	}
	return file, file, nil
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		if strings.EqualFold(level, "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return l
}

// contextHandler copies request correlation out of the context onto each
// record: the request trace_id and, when a span is active, its span_id.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
