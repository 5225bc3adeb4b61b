package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"forge/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Batch.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Batch.Workers)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "")
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[batch]",
		"workers = 4",
		"job_timeout = 30",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Batch.Workers != 4 || cfg.Batch.JobTimeout != 30 {
		t.Fatalf("unexpected batch settings: %+v", cfg.Batch)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.QueueDBPath() != filepath.Join(dir, "logs", "queue.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDBPath())
	}
}

func TestLoadPicksUpFFmpegPathEnv(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "ffmpeg")
	t.Setenv("FFMPEG_PATH", binary)

	cfg, _, _, err := config.Load(filepath.Join(dir, "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FFmpeg.Binary != binary {
		t.Fatalf("expected env override %q, got %q", binary, cfg.FFmpeg.Binary)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Batch.Workers = 0 }},
		{"negative timeout", func(c *config.Config) { c.Batch.JobTimeout = -1 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"positive loudnorm target", func(c *config.Config) { c.FFmpeg.LoudnormI = 3 }},
		{"empty output dir", func(c *config.Config) { c.Paths.OutputDir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[ffmpeg]") {
		t.Fatalf("sample config missing ffmpeg section")
	}
}
