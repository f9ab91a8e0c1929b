// Package writer implements the append-only live-file writer with
// byte-accounted, threshold-triggered rotation (spec §4.5, C5).
package writer

import (
	"fmt"
	"os"
	"time"

	"github.com/karo-systems/karo-logger/internal/message"
	"github.com/karo-systems/karo-logger/internal/rotator"
)

// Diagnostics receives non-fatal writer failures (spec §7: filesystem
// errors in the writer log to stderr and drop the record; the writer
// stays alive).
type Diagnostics interface {
	Warnf(format string, args ...any)
}

// Writer owns the live file's append handle and byte accounting. It is
// accessed exclusively by the dispatcher goroutine (spec §5).
type Writer struct {
	livePath  string
	threshold int64
	rotator   *rotator.Rotator
	diag      Diagnostics

	handle *os.File
	count  int64
}

// New builds a writer for livePath, rotating via r whenever the
// accumulated byte count reaches threshold.
func New(livePath string, threshold int64, r *rotator.Rotator, diag Diagnostics) (*Writer, error) {
	w := &Writer{livePath: livePath, threshold: threshold, rotator: r, diag: diag}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.livePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open live file %s: %w", w.livePath, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat live file %s: %w", w.livePath, err)
	}
	w.handle = f
	w.count = fi.Size()
	return nil
}

// Append renders r, appends it to the live file, and rotates if the
// accumulated byte count reaches the threshold. It returns the rotated
// path if a rotation happened, or "" otherwise. Write and rotation
// failures are non-fatal: they are reported via diag and the writer
// remains usable for subsequent records (spec §7).
func (w *Writer) Append(r message.Record) (rotatedPath string) {
	line := message.Render(r)

	if w.handle == nil {
		if err := w.open(); err != nil {
			w.diag.Warnf("writer: reopen live file: %v", err)
			return ""
		}
	}

	w.count += int64(len(line))
	if _, err := w.handle.WriteString(line); err != nil {
		w.diag.Warnf("writer: append to %s: %v", w.livePath, err)
		return ""
	}

	if w.count < w.threshold {
		return ""
	}

	if err := w.handle.Close(); err != nil {
		w.diag.Warnf("writer: close %s before rotation: %v", w.livePath, err)
	}
	w.handle = nil

	rotated, err := w.rotator.Rotate(time.Now())
	if err != nil {
		w.diag.Warnf("writer: rotate %s: %v", w.livePath, err)
	}

	if err := w.open(); err != nil {
		w.diag.Warnf("writer: reopen live file after rotation: %v", err)
		return rotated
	}
	w.count = 0
	return rotated
}

// Close releases the live file handle.
func (w *Writer) Close() error {
	if w.handle == nil {
		return nil
	}
	err := w.handle.Close()
	w.handle = nil
	return err
}
