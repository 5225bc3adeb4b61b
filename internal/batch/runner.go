package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"forge/internal/config"
	"forge/internal/ffmpeg"
	"forge/internal/fileutil"
	"forge/internal/logging"
	"forge/internal/media/ffprobe"
	"forge/internal/notifications"
	"forge/internal/preset"
	"forge/internal/queue"
	"forge/internal/services"
)

// ErrAlreadyRunning indicates another process holds the batch lock.
var ErrAlreadyRunning = errors.New("another batch run is active")

// Summary aggregates the outcome of one batch run.
type Summary struct {
	RunID     string
	Completed int
	Failed    int
	Cancelled int
	Duration  time.Duration
}

// Processed reports how many jobs reached a terminal state during the run.
func (s Summary) Processed() int {
	return s.Completed + s.Failed + s.Cancelled
}

// Runner claims Pending jobs and drives each one through ffmpeg.
type Runner struct {
	cfg      *config.Config
	store    *queue.Store
	locator  *ffmpeg.Locator
	notifier notifications.Service
	reporter Reporter
	logger   *slog.Logger
	lock     *flock.Flock
}

// Option customizes runner construction.
type Option func(*Runner)

// WithReporter installs the progress sink. Defaults to a log-backed reporter.
func WithReporter(reporter Reporter) Option {
	return func(r *Runner) {
		if reporter != nil {
			r.reporter = reporter
		}
	}
}

// WithNotifier installs the notification service. Defaults to the config's.
func WithNotifier(notifier notifications.Service) Option {
	return func(r *Runner) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithLocator replaces the tool locator.
func WithLocator(locator *ffmpeg.Locator) Option {
	return func(r *Runner) {
		if locator != nil {
			r.locator = locator
		}
	}
}

// NewRunner constructs a batch runner over the given store.
func NewRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("batch runner requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "batch")

	r := &Runner{
		cfg:     cfg,
		store:   store,
		locator: ffmpeg.NewLocator(cfg.FFmpeg.Binary),
		logger:  logger,
		lock:    flock.New(filepath.Join(cfg.Paths.LogDir, "forge.lock")),
	}
	r.reporter = NewLogReporter(logger)
	r.notifier = notifications.NewService(cfg)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run drains Pending jobs in enqueue order until the queue is empty or the
// context is cancelled. One job's failure never halts the batch; a missing
// tool aborts it before any job starts.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	locked, err := r.lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !locked {
		return Summary{}, ErrAlreadyRunning
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("release batch lock", logging.Error(err))
		}
	}()

	binary, err := r.locator.Resolve()
	if err != nil {
		wrapped := services.Wrap(services.ErrConfiguration, "batch", "resolve tool", "install ffmpeg or set ffmpeg.binary", err)
		if nerr := r.notifier.NotifyError(ctx, wrapped, "batch start"); nerr != nil {
			r.logger.Warn("notify error", logging.Error(nerr))
		}
		return Summary{}, wrapped
	}

	summary := Summary{RunID: uuid.NewString()}
	started := time.Now()
	ctx = logging.WithRunID(ctx, summary.RunID)
	runLogger := logging.WithContext(ctx, r.logger)

	health, err := r.store.Health(ctx)
	if err != nil {
		return summary, fmt.Errorf("inspect queue: %w", err)
	}
	if health.Pending == 0 {
		runLogger.Info("queue empty; nothing to convert")
		return summary, nil
	}

	runLogger.Info("batch started",
		logging.Int("pending", health.Pending),
		logging.Int("workers", r.workerCount()),
		logging.String("ffmpeg", binary),
		logging.String(logging.FieldEventType, "batch_started"),
	)
	if err := r.notifier.NotifyBatchStarted(ctx, health.Pending); err != nil {
		runLogger.Warn("notify batch started", logging.Error(err))
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(status queue.Status) {
		mu.Lock()
		defer mu.Unlock()
		switch status {
		case queue.StatusCompleted:
			summary.Completed++
		case queue.StatusCancelled:
			summary.Cancelled++
		default:
			summary.Failed++
		}
	}

	for i := 0; i < r.workerCount(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				job, err := r.store.ClaimNextPending(ctx, summary.RunID)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					runLogger.Error("claim next job",
						logging.Error(err),
						logging.String(logging.FieldEventType, "claim_failed"),
					)
					return
				}
				if job == nil {
					return
				}
				r.processJob(ctx, binary, job)
				record(job.Status)
			}
		}()
	}
	wg.Wait()

	summary.Duration = time.Since(started)
	runLogger.Info("batch finished",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("cancelled", summary.Cancelled),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "batch_finished"),
	)
	if err := r.notifier.NotifyBatchCompleted(context.WithoutCancel(ctx), summary.Completed, summary.Failed, summary.Duration); err != nil {
		runLogger.Warn("notify batch completed", logging.Error(err))
	}
	return summary, ctx.Err()
}

func (r *Runner) workerCount() int {
	if r.cfg.Batch.Workers > 0 {
		return r.cfg.Batch.Workers
	}
	return 1
}

// processJob runs one claimed job to a terminal state. The outcome is always
// persisted, including after cancellation.
func (r *Runner) processJob(ctx context.Context, binary string, job *queue.Job) {
	ctx = logging.WithJobID(ctx, job.ID)
	jobLogger := logging.WithContext(ctx, r.logger)
	r.reporter.JobStarted(job)

	err := r.convert(ctx, binary, job, jobLogger)
	switch {
	case err == nil:
		// convert already marked the job Completed.
	case services.FailureStatus(ctx, err) == queue.StatusCancelled:
		job.SetCancelled()
	case errors.Is(err, context.DeadlineExceeded):
		timeout := time.Duration(r.cfg.Batch.JobTimeout) * time.Second
		wrapped := services.Wrap(services.ErrTimeout, "batch", "convert", fmt.Sprintf("exceeded %s", timeout), err)
		job.SetFailed(services.Details(wrapped))
	default:
		job.SetFailed(services.Details(err))
	}

	persistCtx := context.WithoutCancel(ctx)
	if uerr := r.store.Update(persistCtx, job); uerr != nil {
		jobLogger.Error("persist job outcome", logging.Error(uerr))
	}
	r.reporter.JobFinished(job)
}

// convert performs the conversion and marks the job Completed on success.
// Classification of failures is left to the caller.
func (r *Runner) convert(ctx context.Context, binary string, job *queue.Job, logger *slog.Logger) error {
	settings, err := preset.DecodeSettings(job.SettingsJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "batch", "decode settings", "", err)
	}

	if err := fileutil.EnsureWritableDir(job.OutputDir); err != nil {
		return services.Wrap(services.ErrValidation, "batch", "prepare output", job.OutputDir, err)
	}

	outputPath, args, err := ffmpeg.Build(job.SourcePath, job.OutputDir, settings, r.filterOptions())
	if err != nil {
		return services.Wrap(services.ErrValidation, "batch", "build command", "", err)
	}
	job.OutputPath = outputPath
	job.SetProgress("Converting", 0)
	if uerr := r.store.Update(ctx, job); uerr != nil {
		logger.Warn("persist job progress", logging.Error(uerr))
	}

	total := job.SourceDuration()
	if total == 0 {
		if probed, perr := ffprobe.Inspect(ctx, r.cfg.FFprobeBinary(), job.SourcePath); perr == nil {
			total = probed.Duration()
		}
	}

	jobCtx := ctx
	if r.cfg.Batch.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Batch.JobTimeout)*time.Second)
		defer cancel()
	}

	result, runErr := ffmpeg.Run(jobCtx, binary, args, total, func(update ffmpeg.ProgressUpdate) {
		message := "Converting"
		if update.Speed != "" {
			message = "Converting at " + update.Speed
		}
		job.SetProgress(message, update.Percent)
		if uerr := r.store.Update(ctx, job); uerr != nil {
			logger.Warn("persist job progress", logging.Error(uerr))
		}
		r.reporter.JobProgress(job, update)
	})
	job.ExitCode = result.ExitCode
	job.LogTail = result.Log

	if runErr != nil {
		if result.Log != "" {
			r.reporter.JobLog(job, result.Log)
		}
		if errors.Is(runErr, ffmpeg.ErrExecFailed) {
			detail := fmt.Sprintf("exit code %d", result.ExitCode)
			if line := lastLogLine(result.Log); line != "" {
				detail = fmt.Sprintf("%s: %s", detail, line)
			}
			return services.Wrap(services.ErrExternalTool, "batch", "convert", detail, runErr)
		}
		return runErr
	}

	job.SetCompleted(outputPath)
	return nil
}

// filterOptions takes the filter tunables straight from the config;
// config.Default seeds the stock values, so explicit zeros are honored.
func (r *Runner) filterOptions() ffmpeg.FilterOptions {
	return ffmpeg.FilterOptions{
		LoudnormI:          r.cfg.FFmpeg.LoudnormI,
		LoudnormTP:         r.cfg.FFmpeg.LoudnormTP,
		LoudnormLRA:        r.cfg.FFmpeg.LoudnormLRA,
		SilenceThresholdDB: r.cfg.FFmpeg.SilenceThresholdDB,
		SilenceMinDuration: r.cfg.FFmpeg.SilenceMinDuration,
	}
}

func lastLogLine(log string) string {
	lines := strings.Split(strings.TrimSpace(log), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
