// Package trace records one NDJSON line per scored frame so a run can be
// inspected or plotted afterwards. An empty path disables tracing and every
// call becomes a no-op.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/keagan/highlightview/internal/logging"
	"github.com/keagan/highlightview/pkg/util"
	"github.com/rs/zerolog"
)

// Record describes one sampled frame after scoring
type Record struct {
	Frame       int
	Mean        float64
	Std         float64
	Edges       float64
	Motion      float64
	Probability float64
	Fused       float64
	DelayMS     int64
	Highlight   bool
}

// Writer appends Records to a file as zerolog events. Each line carries the
// logger's "time" field plus the record fields.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	out     *lineWriter
	logger  zerolog.Logger
	enabled bool
	written int
}

// lineWriter keeps the first error of the underlying buffer so Write can
// report it; zerolog itself only hands write errors to its error handler.
type lineWriter struct {
	w   *bufio.Writer
	err error
}

func (l *lineWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil && l.err == nil {
		l.err = err
	}
	return n, err
}

// New creates (truncating) the trace file at path. An empty path returns a
// disabled writer.
func New(path string) (*Writer, error) {
	if path == "" {
		return &Writer{}, nil
	}
	if err := util.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	buf := bufio.NewWriter(f)
	out := &lineWriter{w: buf}
	return &Writer{
		file:    f,
		buf:     buf,
		out:     out,
		logger:  logging.NewLogger(out),
		enabled: true,
	}, nil
}

// Write appends rec as a single JSON line
func (w *Writer) Write(rec Record) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.enabled {
		return nil
	}
	if w.out.err != nil {
		return w.out.err
	}

	w.logger.Log().
		Int("frame", rec.Frame).
		Float64("mean", rec.Mean).
		Float64("std", rec.Std).
		Float64("edges", rec.Edges).
		Float64("motion", rec.Motion).
		Float64("probability", rec.Probability).
		Float64("fused", rec.Fused).
		Int64("delay_ms", rec.DelayMS).
		Bool("highlight", rec.Highlight).
		Send()

	if w.out.err != nil {
		return w.out.err
	}
	w.written++
	return nil
}

// Written returns the number of records accepted so far
func (w *Writer) Written() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close flushes and closes the file. Safe on a nil or disabled writer and safe
// to call more than once.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.enabled {
		return nil
	}

	w.enabled = false
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	return w.file.Close()
}
