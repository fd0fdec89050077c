package accesslog

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nite-coder/ccipgate/pkg/config"
)

// BufferedWriter batches access log lines in memory and flushes them on an interval.
type BufferedWriter struct {
	mu         sync.Mutex
	writer     *bufio.Writer
	file       *os.File
	flush      time.Duration
	flushTimer *time.Timer
	closed     bool
}

func NewBufferedWriter(opts config.AccessLogOptions) (*BufferedWriter, error) {
	var out io.Writer

	w := &BufferedWriter{
		flush: opts.Flush,
	}

	switch strings.ToLower(opts.Output) {
	case "":
		out = io.Discard
	case "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		file, err := os.OpenFile(opts.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		w.file = file
		out = file
	}

	size := opts.BufferSize
	if size <= 0 {
		size = 64 * config.KB
	}
	w.writer = bufio.NewWriterSize(out, size)

	if w.flush > 0 {
		w.flushTimer = time.AfterFunc(w.flush, w.periodicFlush)
	}

	return w, nil
}

func (w *BufferedWriter) WriteString(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	_, _ = w.writer.WriteString(line)
}

func (w *BufferedWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *BufferedWriter) flushLocked() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}

	if w.file != nil {
		return w.file.Sync()
	}

	return nil
}

func (w *BufferedWriter) periodicFlush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	_ = w.flushLocked()
	w.flushTimer.Reset(w.flush)
}

func (w *BufferedWriter) Close() error {
	if w.flushTimer != nil {
		w.flushTimer.Stop()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	err := w.flushLocked()

	if w.file != nil {
		if cerr := w.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
