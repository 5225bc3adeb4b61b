package batch

import (
	"log/slog"

	"forge/internal/ffmpeg"
	"forge/internal/logging"
	"forge/internal/queue"
)

// Reporter receives job lifecycle events from the runner. Implementations
// must tolerate concurrent calls when the worker pool is wider than one.
type Reporter interface {
	JobStarted(job *queue.Job)
	JobProgress(job *queue.Job, update ffmpeg.ProgressUpdate)
	JobLog(job *queue.Job, text string)
	JobFinished(job *queue.Job)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) JobStarted(*queue.Job)                         {}
func (NopReporter) JobProgress(*queue.Job, ffmpeg.ProgressUpdate) {}
func (NopReporter) JobLog(*queue.Job, string)                     {}
func (NopReporter) JobFinished(*queue.Job)                        {}

// LogReporter forwards job events to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter builds a reporter backed by the given logger. A nil logger
// discards everything.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) JobStarted(job *queue.Job) {
	r.logger.Info("job started",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldSource, job.SourcePath),
		logging.String(logging.FieldPreset, job.PresetName),
		logging.String(logging.FieldEventType, "job_started"),
	)
}

func (r *LogReporter) JobProgress(job *queue.Job, update ffmpeg.ProgressUpdate) {
	r.logger.Debug("job progress",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Float64("percent", update.Percent),
		logging.Duration("out_time", update.OutTime),
		logging.String("speed", update.Speed),
		logging.String(logging.FieldEventType, "job_progress"),
	)
}

func (r *LogReporter) JobLog(job *queue.Job, text string) {
	if text == "" {
		return
	}
	r.logger.Info("job log",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("log", text),
		logging.String(logging.FieldEventType, "job_log"),
	)
}

func (r *LogReporter) JobFinished(job *queue.Job) {
	attrs := []logging.Attr{
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("status", string(job.Status)),
		logging.String(logging.FieldEventType, "job_finished"),
	}
	switch job.Status {
	case queue.StatusCompleted:
		attrs = append(attrs, logging.String(logging.FieldOutput, job.OutputPath))
		r.logger.Info("job completed", logging.Args(attrs...)...)
	case queue.StatusCancelled:
		r.logger.Warn("job cancelled", logging.Args(attrs...)...)
	default:
		attrs = append(attrs,
			logging.String("error", job.ErrorMessage),
			logging.Int("exit_code", job.ExitCode),
		)
		r.logger.Error("job failed", logging.Args(attrs...)...)
	}
}
