// Package view implements the log viewer (spec §4.2-§4.4 via C2+C3, plus
// the interactive/follow presentation layer spec §5 describes): a
// registry-backed moving window over the live file and its rotated
// siblings, scrolled by keystrokes and refreshed on file-system events.
//
// Colorization and terminal screen management are out of scope (spec §1
// "External Collaborators"); this package only ever writes plain text
// frames to its output writer.
package view

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/karo-systems/karo-logger/internal/logdir"
	"github.com/karo-systems/karo-logger/internal/registry"
	"github.com/karo-systems/karo-logger/internal/window"
)

// Viewer owns one registry over a live file's fleet and presents a moving
// text window over it. It is single-threaded: every method here is meant
// to be called from one goroutine (spec §5: "each line window and
// registry window is owned exclusively by the viewer's main thread").
type Viewer struct {
	livePath    string
	windowLines int
	out         io.Writer
	reg         *registry.Registry
}

// Open builds a viewer positioned at the tail of livePath's fleet.
func Open(livePath string, windowLines int, out io.Writer) (*Viewer, error) {
	v := &Viewer{livePath: livePath, windowLines: windowLines, out: out}
	v.reload()
	return v, nil
}

// reload re-lists the fleet and rebuilds the registry positioned at the
// live file's tail. Called on open and after every rotation. Listing
// never fails outright: logdir.List warns and returns an empty list on
// an unreadable directory rather than erroring (spec §7 "the UI never
// crashes").
func (v *Viewer) reload() {
	entries := logdir.List(v.livePath, v)
	if v.reg != nil {
		v.reg.Close()
	}
	v.reg = registry.New(entries)
	v.reg.Shift(window.Left, 0, v.windowLines)
}

// Warnf satisfies logdir.Diagnostics: a listing warning is just another
// line to the viewer's output stream.
func (v *Viewer) Warnf(format string, args ...any) {
	fmt.Fprintf(v.out, "view: "+format+"\n", args...)
}

// Close releases every open file handle the registry holds.
func (v *Viewer) Close() error {
	if v.reg == nil {
		return nil
	}
	v.reg.Close()
	return nil
}

// Render writes the current window's content to out.
func (v *Viewer) Render() {
	fmt.Fprintln(v.out, v.reg.Render())
}

// Scroll moves the window by shiftLen lines in dir, reading new lines on
// the far side and dropping shiftLen on the near side (spec §4.1 "Shift").
func (v *Viewer) Scroll(dir window.Direction, shiftLen int) {
	v.reg.Shift(dir, shiftLen, v.windowLines)
}

// event carries either of the two input sources (a keystroke or a
// file-watch notification) that the main loop funnels through one channel (spec §5: "a reader thread for input plus
// a file-watcher callback thread, funneled through a channel").
type event struct {
	key     rune
	rotated bool
	err     error
}

// Run drives the viewer until ctx is canceled or the key reader signals
// quit. keys delivers raw keystrokes from an input-reading goroutine the
// caller owns (so it can put the terminal in raw mode around this call);
// follow, when true, additionally watches the live file's directory and
// re-renders on growth or rotation.
func (v *Viewer) Run(ctx context.Context, keys <-chan rune, follow bool) error {
	v.Render()

	events := make(chan event, 16)

	go func() {
		for {
			select {
			case k, ok := <-keys:
				if !ok {
					return
				}
				select {
				case events <- event{key: k}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var watcher *fsnotify.Watcher
	if follow {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("view: watch %s: %w", v.livePath, err)
		}
		watcher = w
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(v.livePath)); err != nil {
			return fmt.Errorf("view: watch %s: %w", filepath.Dir(v.livePath), err)
		}
		go func() {
			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					// Rotation creates a fresh live file; ordinary appends
					// are Write events on the existing one. Either way the
					// fleet may have changed, so both trigger a reload.
					if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					select {
					case events <- event{rotated: true}:
					case <-ctx.Done():
						return
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					select {
					case events <- event{err: err}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch {
			case ev.err != nil:
				fmt.Fprintf(v.out, "view: watch error: %v\n", ev.err)
			case ev.rotated:
				v.reload()
				v.Render()
			default:
				if quit := v.handleKey(ev.key); quit {
					return nil
				}
			}
		}
	}
}

// handleKey applies one keystroke's scroll and reports whether it was a
// quit request.
func (v *Viewer) handleKey(k rune) (quit bool) {
	switch k {
	case 'q':
		return true
	case 'k', 'A': // up / arrow-up
		v.Scroll(window.Left, 1)
		v.Render()
	case 'j', 'B': // down / arrow-down
		v.Scroll(window.Right, 1)
		v.Render()
	case 'g':
		v.Scroll(window.Left, 1<<30)
		v.Render()
	case 'G':
		v.Scroll(window.Right, 1<<30)
		v.Render()
	}
	return false
}
