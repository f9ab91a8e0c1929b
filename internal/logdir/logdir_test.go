package logdir

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
}

// fakeDiag collects the warnings List emits, so tests can assert on them
// without a real Diagnostics implementation.
type fakeDiag struct {
	t        *testing.T
	warnings []string
}

func (d *fakeDiag) Warnf(format string, args ...any) {
	d.t.Helper()
	d.warnings = append(d.warnings, format)
}

func TestListOrdersRotatedThenLive(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"karo.log",
		"karo_2015_02_17_23_16_09.log",
		"karo_2015_02_18_11_16_09.log",
		"karo_2015_02_18_23_16_09.log",
		"karo_2015_02_23_01_00_00.log",
		"invalid.log",
		"invalid2.log",
	}
	for _, n := range names {
		touch(t, dir, n)
	}

	diag := &fakeDiag{t: t}
	entries := List(filepath.Join(dir, "karo.log"), diag)
	if len(diag.warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", diag.warnings)
	}

	wantOrder := []string{
		"karo_2015_02_17_23_16_09.log",
		"karo_2015_02_18_11_16_09.log",
		"karo_2015_02_18_23_16_09.log",
		"karo_2015_02_23_01_00_00.log",
		"karo.log",
	}
	if len(entries) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(wantOrder), entries)
	}
	for i, e := range entries {
		if filepath.Base(e.Path) != wantOrder[i] {
			t.Errorf("entries[%d] = %s, want %s", i, filepath.Base(e.Path), wantOrder[i])
		}
	}
	if entries[len(entries)-1].Kind != Live {
		t.Errorf("last entry should be Live")
	}
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Kind != Rotated {
			t.Errorf("entries[%d] should be Rotated", i)
		}
	}
}

func TestListMissingLiveFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "karo_2015_02_17_23_16_09.log")

	diag := &fakeDiag{t: t}
	entries := List(filepath.Join(dir, "karo.log"), diag)
	if len(entries) != 1 || entries[0].Kind != Rotated {
		t.Fatalf("expected one rotated entry, got %+v", entries)
	}
}

func TestListUnreadableDirectoryWarnsAndReturnsEmpty(t *testing.T) {
	diag := &fakeDiag{t: t}
	entries := List(filepath.Join(t.TempDir(), "nonexistent-dir", "karo.log"), diag)
	if entries != nil {
		t.Fatalf("expected a nil/empty entry list for an unreadable directory, got %+v", entries)
	}
	if len(diag.warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", diag.warnings)
	}
}
