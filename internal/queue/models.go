package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job represents a single conversion persisted in SQLite.
type Job struct {
	ID               int64
	RunID            string
	SourcePath       string
	OutputDir        string
	OutputPath       string
	PresetName       string
	SettingsJSON     string
	Status           Status
	ExitCode         int
	ErrorMessage     string
	LogTail          string
	ProgressPercent  float64
	ProgressMessage  string
	SourceSize       int64
	SourceDurationMS int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
}

// SourceDuration returns the probed source duration, or 0 when unknown.
func (j Job) SourceDuration() time.Duration {
	if j.SourceDurationMS <= 0 {
		return 0
	}
	return time.Duration(j.SourceDurationMS) * time.Millisecond
}

// SetProgress updates the progress fields together.
func (j *Job) SetProgress(message string, percent float64) {
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetCompleted marks the job as successfully finished.
func (j *Job) SetCompleted(outputPath string) {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.OutputPath = outputPath
	j.ProgressPercent = 100
	j.ProgressMessage = "Completed"
	j.ErrorMessage = ""
	j.FinishedAt = &now
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	now := time.Now().UTC()
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressMessage = message
	j.FinishedAt = &now
}

// SetCancelled marks the job as interrupted by a cancellation request.
func (j *Job) SetCancelled() {
	now := time.Now().UTC()
	j.Status = StatusCancelled
	j.ProgressMessage = "Cancelled"
	j.FinishedAt = &now
}

// BatchState summarizes a set of jobs sharing a view of the queue.
type BatchState string

const (
	BatchIdle      BatchState = "idle"
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
)

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}

// State derives the overall batch state from the aggregated counts.
func (h HealthSummary) State() BatchState {
	switch {
	case h.Running > 0:
		return BatchRunning
	case h.Pending > 0 || h.Total == 0:
		return BatchIdle
	default:
		return BatchCompleted
	}
}
