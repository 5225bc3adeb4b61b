package ffmpeg

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// ErrToolNotFound indicates no usable ffmpeg binary could be resolved.
var ErrToolNotFound = errors.New("ffmpeg not found")

// Locator resolves the ffmpeg executable path. Probe order: the explicit
// override, the application's own directory, a bin/ subdirectory beneath it,
// then the system PATH. The result is cached until the override changes.
type Locator struct {
	mu       sync.Mutex
	override string
	appDir   string
	resolved string
}

// LocatorOption customizes locator construction.
type LocatorOption func(*Locator)

// WithAppDir overrides the directory treated as the application directory.
// Defaults to the directory containing the running executable.
func WithAppDir(dir string) LocatorOption {
	return func(l *Locator) {
		l.appDir = dir
	}
}

// NewLocator constructs a locator with the given override path, which may be
// empty to rely on probing alone.
func NewLocator(override string, opts ...LocatorOption) *Locator {
	l := &Locator{override: strings.TrimSpace(override)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the ffmpeg binary path, probing on first use.
func (l *Locator) Resolve() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved != "" {
		return l.resolved, nil
	}
	path, err := l.probe()
	if err != nil {
		return "", err
	}
	l.resolved = path
	return path, nil
}

// SetOverride replaces the override path and discards the cached result.
func (l *Locator) SetOverride(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.override = strings.TrimSpace(path)
	l.resolved = ""
}

// Invalidate discards the cached resolution so the next Resolve re-probes.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved = ""
}

func (l *Locator) probe() (string, error) {
	if l.override != "" && isExecutableFile(l.override) {
		return l.override, nil
	}

	appDir := l.appDir
	if appDir == "" {
		if exe, err := os.Executable(); err == nil {
			appDir = filepath.Dir(exe)
		}
	}
	if appDir != "" {
		for _, name := range toolNames() {
			for _, dir := range []string{appDir, filepath.Join(appDir, "bin")} {
				candidate := filepath.Join(dir, name)
				if isExecutableFile(candidate) {
					return candidate, nil
				}
			}
		}
	}

	for _, name := range toolNames() {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", ErrToolNotFound
}

func toolNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"ffmpeg.exe", "ffmpeg"}
	}
	return []string{"ffmpeg"}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
