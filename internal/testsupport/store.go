package testsupport

import (
	"context"
	"testing"

	"forge/internal/config"
	"forge/internal/preset"
	"forge/internal/queue"
)

// MustOpenStore opens the queue database for the given config and registers
// cleanup to close it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close queue store: %v", err)
		}
	})
	return store
}

// NewJob enqueues a pending job with sensible defaults for the given source
// path. The preset defaults to High MP3.
func NewJob(t testing.TB, store *queue.Store, cfg *config.Config, sourcePath string) *queue.Job {
	t.Helper()

	registry := preset.NewRegistry()
	p, err := registry.Get("High MP3")
	if err != nil {
		t.Fatalf("builtin preset: %v", err)
	}
	settings, err := p.Settings.Encode()
	if err != nil {
		t.Fatalf("encode settings: %v", err)
	}

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		SourcePath:   sourcePath,
		OutputDir:    cfg.Paths.OutputDir,
		PresetName:   p.Name,
		SettingsJSON: settings,
	})
	if err != nil {
		t.Fatalf("enqueue job: %v", err)
	}
	return job
}
