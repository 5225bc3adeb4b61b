package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"forge/internal/ffmpeg"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunSuccessReportsProgress(t *testing.T) {
	script := writeScript(t, strings.Join([]string{
		`echo "out_time_us=500000"`,
		`echo "speed=8.1x"`,
		`echo "progress=continue"`,
		`echo "out_time_us=1000000"`,
		`echo "progress=end"`,
		`echo "all good" >&2`,
		"exit 0",
	}, "\n"))

	var updates []ffmpeg.ProgressUpdate
	result, err := ffmpeg.Run(context.Background(), script, nil, time.Second, func(u ffmpeg.ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
	if !strings.Contains(result.Log, "all good") {
		t.Fatalf("expected stderr captured, got %q", result.Log)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(updates))
	}
	if updates[0].Percent != 50 {
		t.Fatalf("expected 50%% at half duration, got %v", updates[0].Percent)
	}
	if updates[0].Speed != "8.1x" {
		t.Fatalf("expected speed captured, got %q", updates[0].Speed)
	}
	if updates[1].Percent != 100 {
		t.Fatalf("expected 100%% at end, got %v", updates[1].Percent)
	}
}

func TestRunNonzeroExit(t *testing.T) {
	script := writeScript(t, "echo \"kaboom: bad input\" >&2\nexit 3\n")

	result, err := ffmpeg.Run(context.Background(), script, nil, 0, nil)
	if !errors.Is(err, ffmpeg.ErrExecFailed) {
		t.Fatalf("expected ErrExecFailed, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Log, "kaboom") {
		t.Fatalf("expected captured log, got %q", result.Log)
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := ffmpeg.Run(ctx, script, nil, 0, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunCancellation(t *testing.T) {
	script := writeScript(t, "exec sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := ffmpeg.Run(ctx, script, nil, 0, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation took too long: %v", elapsed)
	}
}

func TestVersion(t *testing.T) {
	script := writeScript(t, "echo \"ffmpeg version 7.1 Copyright\"\nexit 0\n")
	version, err := ffmpeg.Version(context.Background(), script)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if !strings.HasPrefix(version, "ffmpeg version 7.1") {
		t.Fatalf("unexpected version line %q", version)
	}
}
