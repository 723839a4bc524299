package gifpress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// tracker owns the best artifact produced so far. Candidates are offered
// after every attempt and adopted only on strict byte-size improvement, so
// an equal-sized later candidate always loses to the earlier, gentler one.
// Adoption moves the candidate file into the tracker's slot and releases the
// previously held file: after any attempt settles, at most the held best and
// one in-flight candidate exist on disk.
type tracker struct {
	dir      string
	target   int64
	bestSize int64
	bestPath string // empty until a candidate improves on the original

	// lastPath keeps the most recent valid candidate around while nothing
	// has improved on the original yet, so a run that never beats the
	// source still ends with a usable artifact.
	lastPath string
}

// newTracker creates a tracker rooted in the per-run temp directory. The
// starting best size is the original file size, so only candidates strictly
// smaller than the source are ever adopted.
func newTracker(dir string, originalSize, targetSize int64) *tracker {
	return &tracker{
		dir:      dir,
		target:   targetSize,
		bestSize: originalSize,
	}
}

// Offer hands a candidate file to the tracker. On strict improvement the
// candidate is adopted and the previous best released; otherwise it is
// discarded. The returned targetMet flag tells the search driver to stop.
func (t *tracker) Offer(candidate string, size int64) (improved, targetMet bool, err error) {
	if size < t.bestSize {
		dest := filepath.Join(t.dir, "best.gif")
		if err := os.Rename(candidate, dest); err != nil {
			return false, false, fmt.Errorf("unable to retain the candidate: %w", err)
		}
		if t.lastPath != "" {
			os.Remove(t.lastPath)
			t.lastPath = ""
		}
		t.bestPath = dest
		t.bestSize = size
		return true, t.bestSize <= t.target, nil
	}

	if t.bestPath == "" {
		// No improvement on the original yet; keep the newest valid
		// candidate as the fallback result.
		dest := filepath.Join(t.dir, "last.gif")
		if err := os.Rename(candidate, dest); err != nil {
			return false, false, fmt.Errorf("unable to retain the candidate: %w", err)
		}
		t.lastPath = dest
		return false, false, nil
	}

	os.Remove(candidate)
	return false, false, nil
}

// BestSize returns the byte size of the best artifact seen so far, which is
// the original size until the first improvement.
func (t *tracker) BestSize() int64 {
	return t.bestSize
}

// HasResult reports whether any attempt produced a usable artifact.
func (t *tracker) HasResult() bool {
	return t.bestPath != "" || t.lastPath != ""
}

// Finalize copies the held artifact to the output path and returns its byte
// size. When nothing ever improved on the original, the last valid candidate
// is used verbatim, which can be larger than the target.
func (t *tracker) Finalize(out string) (int64, error) {
	src := t.bestPath
	if src == "" {
		src = t.lastPath
	}
	if src == "" {
		return 0, fmt.Errorf("no attempt produced a usable artifact")
	}
	return copyFile(src, out)
}

// copyFile copies src to dst in full, removing a partially written
// destination on failure so an inconsistent output file is never left behind.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err1 := out.Close(); err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}
