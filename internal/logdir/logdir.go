// Package logdir discovers a live log file and its timestamped rotated
// siblings in one directory and orders them chronologically (spec §4.2, C2).
package logdir

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the fixed local-time format rotated file names embed,
// matching the rotator's naming scheme (spec §6).
const TimestampLayout = "2006_01_02_15_04_05"

// Kind classifies a directory entry.
type Kind int

const (
	// Rotated is an immutable, timestamp-named former live file.
	Rotated Kind = iota
	// Live is the single current append target.
	Live
)

// Entry is one file discovered alongside the live file.
type Entry struct {
	Path string
	Kind Kind
	// Timestamp is the rotation time encoded in the name; zero for Live.
	Timestamp time.Time
}

// Diagnostics receives the non-fatal warnings List produces for an
// unreadable directory, a missing live file, or a sibling whose timestamp
// does not parse (spec §4.2: these are warnings, not errors).
type Diagnostics interface {
	Warnf(format string, args ...any)
}

// List discovers the directory entries for the live file at livePath:
// the live file itself plus any sibling matching
// "<stem>_<timestamp>.<ext>", ordered per spec §3 (rotated ascending by
// timestamp, then the live file last). An unreadable directory, a
// missing live file, and unparseable sibling names are all tolerated:
// they warn via diag and yield an empty (or partial) list, never a
// fatal error — the viewer must never crash over a directory hiccup
// (spec §7).
func List(livePath string, diag Diagnostics) []Entry {
	dir := filepath.Dir(livePath)
	liveName := filepath.Base(livePath)
	ext := filepath.Ext(liveName)
	stem := strings.TrimSuffix(liveName, ext)

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(stem) + `_([^.]+)` + regexp.QuoteMeta(ext) + "$")

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		diag.Warnf("logdir: read directory %s: %v", dir, err)
		return nil
	}

	var entries []Entry
	sawLive := false
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if name == liveName {
			sawLive = true
			entries = append(entries, Entry{Path: filepath.Join(dir, name), Kind: Live})
			continue
		}
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
		if err != nil {
			diag.Warnf("logdir: ignoring %s: unparseable timestamp: %v", name, err)
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(dir, name), Kind: Rotated, Timestamp: ts})
	}
	if !sawLive {
		diag.Warnf("logdir: live file %s not found", livePath)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Kind != b.Kind {
			return a.Kind == Rotated // Rotated entries sort before Live
		}
		if a.Kind == Rotated {
			return a.Timestamp.Before(b.Timestamp)
		}
		return false // both Live: stable, at most one exists
	})

	return entries
}
