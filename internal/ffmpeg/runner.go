package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProgressUpdate captures one progress report parsed from ffmpeg's
// -progress stream.
type ProgressUpdate struct {
	Percent float64
	OutTime time.Duration
	Speed   string
}

// RunResult carries the observable outcome of one tool invocation.
type RunResult struct {
	ExitCode int
	Log      string
}

// logTailLimit bounds the captured stderr so a chatty tool cannot balloon
// queue rows.
const logTailLimit = 16 * 1024

// ErrExecFailed reports a nonzero tool exit; the RunResult holds the detail.
var ErrExecFailed = errors.New("ffmpeg exited with an error")

// Run invokes ffmpeg with the built arguments. Stdout carries the machine
// progress stream; stderr is collected as the job log. total scales progress
// into a percentage; pass 0 when the source duration is unknown.
func Run(ctx context.Context, binary string, args []string, total time.Duration, progress func(ProgressUpdate)) (RunResult, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	tail := newTailBuffer(logTailLimit)
	cmd.Stderr = tail

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return RunResult{}, err
	}

	if err := cmd.Start(); err != nil {
		return RunResult{}, err
	}

	scanner := bufio.NewScanner(stdout)
	var current ProgressUpdate
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTime = time.Duration(us) * time.Microsecond
				if total > 0 {
					current.Percent = clampPercent(float64(current.OutTime) / float64(total) * 100)
				}
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			if value == "end" {
				current.Percent = 100
			}
			if progress != nil {
				progress(current)
			}
		}
	}

	waitErr := cmd.Wait()
	result := RunResult{Log: tail.String()}

	if waitErr != nil {
		// Report cancellation and timeouts as such rather than as a tool
		// failure; the process was killed, not broken.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, ErrExecFailed
		}
		return result, waitErr
	}
	return result, nil
}

// Version reports the first line of `ffmpeg -version` output.
func Version(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line), nil
}

func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	if len(b.data) > b.limit {
		b.data = b.data[len(b.data)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.data))
}
