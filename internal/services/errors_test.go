package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"forge/internal/queue"
	"forge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "runner", "convert", "ffmpeg exited 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"runner", "convert", "ffmpeg exited 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "queue", "claim", "no marker", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	ctx := context.Background()

	toolErr := services.Wrap(services.ErrExternalTool, "runner", "convert", "exit 1", nil)
	if status := services.FailureStatus(ctx, toolErr); status != queue.StatusFailed {
		t.Fatalf("expected failed for tool error, got %s", status)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	cancelErr := fmt.Errorf("job interrupted: %w", context.Canceled)
	if status := services.FailureStatus(cancelled, cancelErr); status != queue.StatusCancelled {
		t.Fatalf("expected cancelled for context cancellation, got %s", status)
	}

	if status := services.FailureStatus(ctx, nil); status != queue.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestFailureStatusRequiresCancelledContext(t *testing.T) {
	cancelErr := fmt.Errorf("subprocess gave up: %w", context.Canceled)
	if status := services.FailureStatus(context.Background(), cancelErr); status != queue.StatusFailed {
		t.Fatalf("expected failed when the batch context is still live, got %s", status)
	}
	if status := services.FailureStatus(nil, cancelErr); status != queue.StatusFailed {
		t.Fatalf("expected failed for nil context, got %s", status)
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "command", "build", "unsupported format", nil)
	details := services.Details(err)
	if strings.Contains(details, "validation error") {
		t.Fatalf("expected marker stripped, got %q", details)
	}
	if !strings.Contains(details, "unsupported format") {
		t.Fatalf("expected message retained, got %q", details)
	}
	if services.Details(nil) != "" {
		t.Fatal("expected empty details for nil error")
	}
}
