package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Config holds logger configuration. When SeqURL is set, records fan
// out to a Seq server in addition to the local handler.
type Config struct {
	Level      slog.Level
	Format     string // "json" or "text"
	OutputPath string // empty for stdout
	SeqURL     string
}

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	cleanup  func()
)

// multiHandler forwards records to every wrapped handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Init configures the package logger. Call once at startup; without it
// GetLogger falls back to a text logger on stderr.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var writer io.Writer = os.Stdout
	var file *os.File
	if config.OutputPath != "" {
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writer = f
		file = f
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var local slog.Handler
	if config.Format == "json" {
		local = slog.NewJSONHandler(writer, opts)
	} else {
		local = slog.NewTextHandler(writer, opts)
	}

	handler := local
	var seqClose func()
	if config.SeqURL != "" {
		_, seqHandler := slogseq.NewLogger(
			config.SeqURL,
			slogseq.WithBatchSize(50),
			slogseq.WithFlushInterval(2*time.Second),
			slogseq.WithHandlerOptions(opts),
		)
		if seqHandler != nil {
			handler = &multiHandler{handlers: []slog.Handler{local, seqHandler}}
			seqClose = func() { seqHandler.Close() }
		}
	}

	logger = slog.New(handler)
	cleanup = func() {
		if seqClose != nil {
			seqClose()
		}
		if file != nil {
			file.Close()
		}
	}
	return nil
}

// GetLogger returns the configured logger, initializing a stderr text
// logger on first use if Init was never called.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return logger
}

// Close flushes and releases logging resources.
func Close() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	logger = nil
}
