package batch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"forge/internal/batch"
	"forge/internal/config"
	"forge/internal/ffmpeg"
	"forge/internal/logging"
	"forge/internal/queue"
	"forge/internal/services"
	"forge/internal/testsupport"
)

func newRunner(t *testing.T, cfg *config.Config, store *queue.Store, opts ...batch.Option) *batch.Runner {
	t.Helper()
	runner, err := batch.NewRunner(cfg, store, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return runner
}

func TestRunConvertsPendingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	source := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "in", "track.wav"), 64)
	job := testsupport.NewJob(t, store, cfg, source)

	runner := newRunner(t, cfg, store)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Completed != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id assigned")
	}

	finished, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if finished.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", finished.Status, finished.ErrorMessage)
	}
	if finished.OutputPath == "" || !strings.HasSuffix(finished.OutputPath, ".mp3") {
		t.Fatalf("expected mp3 output path, got %q", finished.OutputPath)
	}
	if finished.RunID != summary.RunID {
		t.Fatalf("expected run id %q on job, got %q", summary.RunID, finished.RunID)
	}
	if finished.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", finished.ProgressPercent)
	}
}

func TestRunToleratesJobFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
	store := testsupport.MustOpenStore(t, cfg)

	script := testsupport.WriteScript(t, filepath.Join(testsupport.BaseDir(cfg), "bin", "fake-ffmpeg"),
		"#!/bin/sh\ncase \"$*\" in *bad*) echo 'Invalid data found when processing input' >&2; exit 1;; esac\nexit 0\n")
	cfg.FFmpeg.Binary = script

	inDir := filepath.Join(testsupport.BaseDir(cfg), "in")
	good1 := testsupport.NewJob(t, store, cfg, testsupport.WriteFile(t, filepath.Join(inDir, "one.wav"), 16))
	bad := testsupport.NewJob(t, store, cfg, testsupport.WriteFile(t, filepath.Join(inDir, "bad.wav"), 16))
	good2 := testsupport.NewJob(t, store, cfg, testsupport.WriteFile(t, filepath.Join(inDir, "two.wav"), 16))

	runner := newRunner(t, cfg, store)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Completed != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for _, id := range []int64{good1.ID, good2.ID} {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status != queue.StatusCompleted {
			t.Fatalf("expected job %d completed, got %s", id, job.Status)
		}
	}

	failed, err := store.GetByID(context.Background(), bad.ID)
	if err != nil {
		t.Fatalf("get failed job: %v", err)
	}
	if failed.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if failed.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", failed.ExitCode)
	}
	if !strings.Contains(failed.LogTail, "Invalid data") {
		t.Fatalf("expected captured log tail, got %q", failed.LogTail)
	}
	if !strings.Contains(failed.ErrorMessage, "exit code 1") {
		t.Fatalf("expected exit code in error message, got %q", failed.ErrorMessage)
	}
}

func TestRunAbortsWhenToolMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	emptyDir := t.TempDir()
	t.Setenv("PATH", emptyDir)

	job := testsupport.NewJob(t, store, cfg, "/music/track.wav")

	locator := ffmpeg.NewLocator("", ffmpeg.WithAppDir(emptyDir))
	runner := newRunner(t, cfg, store, batch.WithLocator(locator))

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
	if !errors.Is(err, ffmpeg.ErrToolNotFound) {
		t.Fatalf("expected tool-not-found error, got %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration classification, got %v", err)
	}

	pending, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if pending.Status != queue.StatusPending {
		t.Fatalf("expected job untouched, got %s", pending.Status)
	}
}

func TestRunCancellationStopsBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
	store := testsupport.MustOpenStore(t, cfg)

	script := testsupport.WriteScript(t, filepath.Join(testsupport.BaseDir(cfg), "bin", "slow-ffmpeg"),
		"#!/bin/sh\nexec sleep 10\n")
	cfg.FFmpeg.Binary = script

	inDir := filepath.Join(testsupport.BaseDir(cfg), "in")
	first := testsupport.NewJob(t, store, cfg, testsupport.WriteFile(t, filepath.Join(inDir, "one.wav"), 16))
	second := testsupport.NewJob(t, store, cfg, testsupport.WriteFile(t, filepath.Join(inDir, "two.wav"), 16))

	runner := newRunner(t, cfg, store)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan batch.Summary, 1)
	go func() {
		summary, _ := runner.Run(ctx)
		done <- summary
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()

	var summary batch.Summary
	select {
	case summary = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
	if summary.Cancelled != 1 {
		t.Fatalf("expected 1 cancelled job, got %+v", summary)
	}

	interrupted, err := store.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if interrupted.Status != queue.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", interrupted.Status)
	}

	untouched, err := store.GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if untouched.Status != queue.StatusPending {
		t.Fatalf("expected second job to stay pending, got %s", untouched.Status)
	}
}

func TestRunTimeoutFailsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("ffprobe"),
		testsupport.WithJobTimeout(1),
	)
	store := testsupport.MustOpenStore(t, cfg)

	script := testsupport.WriteScript(t, filepath.Join(testsupport.BaseDir(cfg), "bin", "slow-ffmpeg"),
		"#!/bin/sh\nexec sleep 10\n")
	cfg.FFmpeg.Binary = script

	job := testsupport.NewJob(t, store, cfg,
		testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "in", "track.wav"), 16))

	runner := newRunner(t, cfg, store)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failed job, got %+v", summary)
	}

	failed, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if failed.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if !strings.Contains(failed.ErrorMessage, "exceeded") {
		t.Fatalf("expected timeout detail in error message, got %q", failed.ErrorMessage)
	}
}

func TestRunRefusesConcurrentRunner(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	held := flock.New(filepath.Join(cfg.Paths.LogDir, "forge.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire lock for test: locked=%v err=%v", locked, err)
	}
	defer func() { _ = held.Unlock() }()

	runner := newRunner(t, cfg, store)
	if _, err := runner.Run(context.Background()); !errors.Is(err, batch.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestRunEmptyQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	runner := newRunner(t, cfg, store)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed() != 0 {
		t.Fatalf("expected no processed jobs, got %+v", summary)
	}
}

func TestRunLogsCarryRunAndJobIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	source := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "in", "track.wav"), 64)
	job := testsupport.NewJob(t, store, cfg, source)

	logPath := filepath.Join(cfg.Paths.LogDir, "forge.log")
	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	runner, err := batch.NewRunner(cfg, store, logger)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "run_id="+summary.RunID) {
		t.Fatalf("expected run id in log output:\n%s", content)
	}
	if !strings.Contains(content, fmt.Sprintf("job_id=%d", job.ID)) {
		t.Fatalf("expected job id in log output:\n%s", content)
	}
}
