// Package fileutil provides filesystem helpers for output path selection.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureWritableDir creates dir if needed and verifies it accepts writes by
// creating and removing a probe file. A directory that exists but rejects
// writes is reported as an error, not silently accepted.
func EnsureWritableDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory path is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".forge-probe-*")
	if err != nil {
		return fmt.Errorf("directory %q is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// UniquePath returns a path inside dir built from the stem of inputPath and
// ext, appending " (n)" until the candidate neither exists nor collides with
// the input file itself. ext must include the leading dot.
func UniquePath(inputPath, dir, ext string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	candidate := filepath.Join(dir, stem+ext)
	for n := 1; pathTaken(candidate, inputPath); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
	return candidate
}

func pathTaken(candidate, inputPath string) bool {
	if samePath(candidate, inputPath) {
		return true
	}
	_, err := os.Stat(candidate)
	return err == nil
}

func samePath(a, b string) bool {
	cleanA, errA := filepath.Abs(filepath.Clean(a))
	cleanB, errB := filepath.Abs(filepath.Clean(b))
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return cleanA == cleanB
}
