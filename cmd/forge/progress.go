package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"forge/internal/batch"
	"forge/internal/ffmpeg"
	"forge/internal/queue"
)

// newBatchReporter picks the terminal progress bar when stdout is a TTY and
// plain line output otherwise. The bar is a single shared widget and cannot
// track interleaved jobs, so pooled runs always get line output.
func newBatchReporter(out io.Writer, workers int) batch.Reporter {
	if workers <= 1 && isTerminalWriter(out) {
		return &barReporter{out: out}
	}
	return &lineReporter{out: out}
}

func isTerminalWriter(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// lineReporter prints one line per lifecycle event. Suited to pipes and logs.
type lineReporter struct {
	mu  sync.Mutex
	out io.Writer
}

func (r *lineReporter) JobStarted(job *queue.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%d] converting %s\n", job.ID, filepath.Base(job.SourcePath))
}

func (r *lineReporter) JobProgress(*queue.Job, ffmpeg.ProgressUpdate) {}

func (r *lineReporter) JobLog(*queue.Job, string) {}

func (r *lineReporter) JobFinished(job *queue.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch job.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(r.out, "[%d] done: %s\n", job.ID, job.OutputPath)
	case queue.StatusCancelled:
		fmt.Fprintf(r.out, "[%d] cancelled\n", job.ID)
	default:
		fmt.Fprintf(r.out, "[%d] failed: %s\n", job.ID, job.ErrorMessage)
	}
}

// barReporter draws a per-job progress bar. The runner may call it from
// several workers at once; the mutex keeps the bar output coherent.
type barReporter struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func (r *barReporter) JobStarted(job *queue.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(filepath.Base(job.SourcePath)),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) JobProgress(job *queue.Job, update ffmpeg.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Set(int(update.Percent))
	}
}

func (r *barReporter) JobLog(*queue.Job, string) {}

func (r *barReporter) JobFinished(job *queue.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	switch job.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(r.out, "%s -> %s\n", filepath.Base(job.SourcePath), job.OutputPath)
	case queue.StatusCancelled:
		fmt.Fprintf(r.out, "%s cancelled\n", filepath.Base(job.SourcePath))
	default:
		fmt.Fprintf(r.out, "%s failed: %s\n", filepath.Base(job.SourcePath), job.ErrorMessage)
	}
}
