package registry

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/karo-systems/karo-logger/internal/logdir"
	"github.com/karo-systems/karo-logger/internal/window"
)

type fakeDiag struct{ t *testing.T }

func (d fakeDiag) Warnf(format string, args ...any) { d.t.Logf("logdir warn: "+format, args...) }

// writeNumberedLines writes n lines named "<prefix><i>" for i in [lo, hi).
func writeNumberedLines(t *testing.T, path, prefix string, lo, hi int) {
	t.Helper()
	var b strings.Builder
	for i := lo; i < hi; i++ {
		b.WriteString(prefix)
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func padTwo(i int) string {
	s := strconv.Itoa(i)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// buildFleet recreates the spec §8 registry scenario: a live file with
// log00..log04, and two rotated siblings log10..log14 (older) and
// log20..log24 (oldest), so directory order is [log20-24, log10-14, live].
func buildFleet(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	live := filepath.Join(dir, "karo.log")
	writeNumberedLines(t, live, "log0", 0, 5)

	olderName := "karo_" + time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local).Format(logdir.TimestampLayout) + ".log"
	oldestName := "karo_" + time.Date(2010, 1, 1, 0, 0, 0, 0, time.Local).Format(logdir.TimestampLayout) + ".log"
	writeNumberedLines(t, filepath.Join(dir, olderName), "log1", 0, 5)
	writeNumberedLines(t, filepath.Join(dir, oldestName), "log2", 0, 5)

	entries := logdir.List(live, fakeDiag{t})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}
	return New(entries)
}

func TestRegistryShiftSequenceMatchesFleetWalkthrough(t *testing.T) {
	r := buildFleet(t)

	type step struct {
		dir      window.Direction
		shiftLen int
		winLen   int
		want     string
	}
	steps := []step{
		{window.Left, 0, 3, "log02\nlog03\nlog04"},
		{window.Left, 0, 5, "log00\nlog01\nlog02\nlog03\nlog04"},
		{window.Left, 2, 5, "log13\nlog14\nlog00\nlog01\nlog02"},
		{window.Right, 1, 5, "log14\nlog00\nlog01\nlog02\nlog03"},
		{window.Left, 3, 5, ""}, // intermediate step, not independently asserted
		{window.Left, 1, 5, "log10\nlog11\nlog12\nlog13\nlog14"},
		{window.Right, 12, 5, "log00\nlog01\nlog02\nlog03\nlog04"},
	}

	for i, s := range steps {
		r.Shift(s.dir, s.shiftLen, s.winLen)
		if s.want == "" {
			continue
		}
		got := r.Render()
		if got != s.want {
			t.Fatalf("step %d: shift(%v,%d,%d) = %q, want %q", i, s.dir, s.shiftLen, s.winLen, got, s.want)
		}
	}
}

func TestRegistryEmptyFileContributesNoExtraNewline(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "karo.log")
	if err := os.WriteFile(live, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rotName := "karo_" + time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local).Format(logdir.TimestampLayout) + ".log"
	writeNumberedLines(t, filepath.Join(dir, rotName), "log1", 0, 3)

	entries := logdir.List(live, fakeDiag{t})
	r := New(entries)
	r.Shift(window.Left, 0, 3)
	got := r.Render()
	want := "log10\nlog11\nlog12"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}
