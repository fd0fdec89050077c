package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/nite-coder/ccipgate/pkg/config"
)

const fileBufferSize = 64 * 1024

// NewLogger builds the process logger from the logging section of the config.
// An empty output discards every record.
func NewLogger(opts config.LoggingOptions) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey {
				return a
			}
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelNotice {
				a.Value = slog.StringValue("NOTICE")
			}
			return a
		},
	}

	writer, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(opts.Handler)) {
	case "text", "":
		return slog.New(slog.NewTextHandler(writer, handlerOptions)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(writer, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("log: handler '%s' is not supported", opts.Handler)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log: invalid level: %s", s)
	}
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "":
		return io.Discard, nil
	case "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("log: open output failed: %w", err)
	}

	w := newFileWriter(file)
	go w.reopenOnSignal()
	return w, nil
}

// fileWriter buffers writes to a log file and reopens it on SIGUSR1 so logrotate can move it away.
type fileWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

func newFileWriter(file *os.File) *fileWriter {
	return &fileWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, fileBufferSize),
	}
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Write(p)
}

// Flush pushes buffered records to disk.
func (w *fileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("log: flush buffer failed: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("log: sync file failed: %w", err)
	}
	return nil
}

func (w *fileWriter) reopen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.file.Name()
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("log: flush buffer failed: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("log: close file failed: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("log: reopen %s failed: %w", path, err)
	}

	w.file = file
	w.writer.Reset(file)
	return nil
}

func (w *fileWriter) reopenOnSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)

	for range ch {
		if err := w.reopen(); err != nil {
			fmt.Fprintf(os.Stderr, "log: %v\n", err)
		}
	}
}
