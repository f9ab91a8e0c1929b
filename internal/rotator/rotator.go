// Package rotator implements size-triggered log rotation and retention
// pruning (spec §4.4, C4).
package rotator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the fixed local-time format embedded in a rotated
// file's name (spec §6): "%Y_%m_%d_%H_%M_%S".
const TimestampLayout = "2006_01_02_15_04_05"

// Rotator renames a live file to a timestamped sibling and prunes the
// oldest rotated siblings beyond a retention cap.
type Rotator struct {
	livePath string
	keep     int
}

// New builds a rotator for livePath, retaining at most keep rotated
// siblings (plus the live file, which is never counted or pruned).
func New(livePath string, keep int) *Rotator {
	return &Rotator{livePath: livePath, keep: keep}
}

// Rotate renames the live file to a timestamped sibling (best effort:
// a rename failure is logged by the caller via the returned error, not
// fatal to the writer) and prunes the oldest entries beyond the
// retention cap. It returns the rotated path, or "" if the rename
// failed.
func (r *Rotator) Rotate(now time.Time) (string, error) {
	dir := filepath.Dir(r.livePath)
	ext := filepath.Ext(r.livePath)
	stem := strings.TrimSuffix(filepath.Base(r.livePath), ext)
	rotated := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, now.In(time.Local).Format(TimestampLayout), ext))

	if err := os.Rename(r.livePath, rotated); err != nil {
		return "", fmt.Errorf("rotate %s: %w", r.livePath, err)
	}

	if err := r.prune(dir); err != nil {
		return rotated, err
	}
	return rotated, nil
}

// prune lists dir, and if more than keep files remain (the live file is
// absent from the listing between rename and reopen, per spec §4.4),
// unlinks the oldest (ascending by name, which equals chronological
// order for rotated siblings).
func (r *Rotator) prune(dir string) error {
	if r.keep < 0 {
		return nil
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s for pruning: %w", dir, err)
	}
	var names []string
	for _, de := range des {
		if !de.IsDir() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	excess := len(names) - r.keep
	for i := 0; i < excess; i++ {
		if err := os.Remove(filepath.Join(dir, names[i])); err != nil {
			return fmt.Errorf("prune %s: %w", names[i], err)
		}
	}
	return nil
}
