package batch

import (
	"testing"

	"forge/internal/config"
)

func TestFilterOptionsHonorExplicitZero(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.LoudnormTP = 0

	r := &Runner{cfg: &cfg}
	opts := r.filterOptions()

	if opts.LoudnormTP != 0 {
		t.Fatalf("expected configured 0 dBTP ceiling, got %v", opts.LoudnormTP)
	}
	if opts.LoudnormI != -14 || opts.LoudnormLRA != 11 {
		t.Fatalf("expected untouched defaults, got %+v", opts)
	}
	if opts.SilenceThresholdDB != -45 || opts.SilenceMinDuration != 0.4 {
		t.Fatalf("expected silence defaults, got %+v", opts)
	}
}
