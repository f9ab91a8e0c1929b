// Package registry composes the per-file line windows of an ordered set of
// directory entries into one logical, scrollable multi-file stream (spec
// §4.3, C3).
package registry

import (
	"strings"

	"github.com/karo-systems/karo-logger/internal/logdir"
	"github.com/karo-systems/karo-logger/internal/window"
)

// Registry holds the ordered directory entries for one logical log stream,
// each wrapping its own C1 window, plus the active index range [lo, hi].
// A Registry is owned exclusively by the viewer's main thread (spec §5).
type Registry struct {
	entries []logdir.Entry
	windows []*window.Window
	lo, hi  int
}

// New builds a registry over entries (as returned by logdir.List), with
// every file's window rev()'d so the initial view starts at EOF of the
// last (live) entry.
func New(entries []logdir.Entry) *Registry {
	ws := make([]*window.Window, len(entries))
	for i, e := range entries {
		w := window.New(e.Path)
		w.Rev()
		ws[i] = w
	}
	last := len(entries) - 1
	return &Registry{entries: entries, windows: ws, lo: last, hi: last}
}

// Close releases every file handle the registry currently holds open.
func (r *Registry) Close() {
	for _, w := range r.windows {
		_ = w.Close()
	}
}

// Shift is the registry's single exposed operation (spec §4.3): it moves
// the composed window by shiftLen lines toward direction, maintaining
// windowLen lines of total content, reading across file boundaries as
// needed. The two-phase Extend-then-Shift algorithm avoids overshooting
// the fleet edge when the available data is short (spec §9).
func (r *Registry) Shift(dir window.Direction, shiftLen, windowLen int) {
	last := len(r.windows) - 1
	if last < 0 {
		return
	}

	total := r.extend(dir, shiftLen, windowLen, last)
	r.shiftOff(dir, shiftLen, windowLen, total, last)
}

// extend is Phase A: grow the active range toward dir until it holds
// windowLen+shiftLen lines or the fleet edge is reached. Returns the total
// lines obtained across every file visited.
func (r *Registry) extend(dir window.Direction, shiftLen, windowLen, last int) int {
	var idx int
	if dir == window.Left {
		r.lo = r.hi
		idx = r.lo
	} else {
		r.hi = r.lo
		idx = r.hi
	}

	remaining := windowLen + shiftLen
	total := 0
	for remaining > 0 {
		n, _ := r.windows[idx].ReadAndShift(dir, remaining, 0)
		total += n
		if n >= remaining {
			break
		}
		remaining -= n

		if dir == window.Left {
			if r.lo == 0 {
				break
			}
			r.lo--
			idx = r.lo
		} else {
			if r.hi == last {
				break
			}
			r.hi++
			idx = r.hi
		}
	}
	return total
}

// shiftOff is Phase B: pop effective_shift lines from the edge opposite
// the growth direction, advancing that edge inward across file boundaries
// when a file is exhausted before the shift completes.
func (r *Registry) shiftOff(dir window.Direction, shiftLen, windowLen, total, last int) {
	_ = last
	effective := total - windowLen
	if effective < 0 {
		effective = 0
	}

	var oppIdx int
	if dir == window.Left {
		oppIdx = r.hi
	} else {
		oppIdx = r.lo
	}

	for effective > 0 {
		_, shifted := r.windows[oppIdx].ReadAndShift(dir, windowLen, effective)
		effective -= shifted
		if effective <= 0 {
			break
		}
		if dir == window.Left {
			if r.hi <= r.lo {
				break
			}
			r.hi--
			oppIdx = r.hi
		} else {
			if r.lo >= r.hi {
				break
			}
			r.lo++
			oppIdx = r.lo
		}
	}
}

// Lines returns the concatenated line buffer across the active range
// [lo, hi], in file order.
func (r *Registry) Lines() []string {
	var out []string
	for i := r.lo; i <= r.hi; i++ {
		out = append(out, r.windows[i].Lines()...)
	}
	return out
}

// Render joins the active range's per-file line buffers with a single
// "\n" between non-empty consecutive files; empty files contribute
// nothing and cause no extra newline (spec §4.3).
func (r *Registry) Render() string {
	var parts []string
	for i := r.lo; i <= r.hi; i++ {
		lines := r.windows[i].Lines()
		if len(lines) == 0 {
			continue
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n")
}

// ActiveRange returns the current [lo, hi] index bounds into the ordered
// entry list, for diagnostics and testing.
func (r *Registry) ActiveRange() (lo, hi int) {
	return r.lo, r.hi
}
