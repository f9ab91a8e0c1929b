package view

import (
	"bufio"
	"context"
	"os"

	"golang.org/x/term"
)

// ReadKeys puts fd in raw mode and streams decoded keystrokes on the
// returned channel until ctx is canceled or stdin hits EOF. restore must
// be called to put the terminal back however it was found; it is safe to
// call even if MakeRaw failed (e.g. stdin isn't a terminal — ReadKeys
// still works against pipes for scripting/testing, just without raw
// single-key delivery).
//
// Arrow keys arrive over stdin as the escape sequence ESC '[' 'A'/'B'; the
// trailing letter is forwarded as the key so callers can treat it exactly
// like the vim-style 'k'/'j' bindings.
func ReadKeys(ctx context.Context, fd int) (<-chan rune, func() error, error) {
	var oldState *term.State
	restore := func() error { return nil }
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, restore, err
		}
		oldState = state
		restore = func() error { return term.Restore(fd, oldState) }
	}

	out := make(chan rune)
	go func() {
		defer close(out)
		r := bufio.NewReader(os.NewFile(uintptr(fd), "stdin"))
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			k := rune(b)
			if b == 0x1b { // ESC: try to decode a CSI arrow sequence
				b2, err := r.ReadByte()
				if err != nil || b2 != '[' {
					k = 'q' // bare escape: treat as quit
				} else {
					b3, err := r.ReadByte()
					if err != nil {
						return
					}
					k = rune(b3) // 'A' up, 'B' down, etc.
				}
			}
			select {
			case out <- k:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, restore, nil
}
