// Package deps inspects the external tools forge shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"forge/internal/config"
	"forge/internal/ffmpeg"
)

// Requirement defines an external dependency forge relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckTools resolves ffmpeg through the locator's probe order and ffprobe
// through PATH, recording versions for the available ones.
func CheckTools(ctx context.Context, cfg *config.Config) []Status {
	ffmpegStatus := Status{
		Name:        "FFmpeg",
		Description: "Performs the audio conversions",
	}
	locator := ffmpeg.NewLocator(cfg.FFmpeg.Binary)
	if path, err := locator.Resolve(); err == nil {
		ffmpegStatus.Command = path
		ffmpegStatus.Available = true
		if version, verr := ffmpeg.Version(ctx, path); verr == nil {
			ffmpegStatus.Version = version
		}
	} else {
		ffmpegStatus.Command = "ffmpeg"
		ffmpegStatus.Detail = "not found; install ffmpeg or set ffmpeg.binary"
	}

	ffprobeStatus := Status{
		Name:        "FFprobe",
		Command:     cfg.FFprobeBinary(),
		Description: "Probes source duration and streams",
		Optional:    true,
	}
	if path, err := exec.LookPath(cfg.FFprobeBinary()); err == nil {
		ffprobeStatus.Command = path
		ffprobeStatus.Available = true
	} else {
		ffprobeStatus.Detail = "not found; progress percentages will be unavailable"
	}

	return []Status{ffmpegStatus, ffprobeStatus}
}
