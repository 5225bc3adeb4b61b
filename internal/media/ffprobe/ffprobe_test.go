package ffprobe

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2}
		],
		"format": {"filename": "song.mp3", "nb_streams": 1, "duration": "185.25", "size": "7411200", "format_name": "mp3"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.SampleRate() != 44100 {
		t.Fatalf("unexpected sample rate: %d", result.SampleRate())
	}
	if got, want := result.Duration(), 185250*time.Millisecond; got != want {
		t.Fatalf("unexpected duration: %v", got)
	}
	if result.SizeBytes() != 7411200 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResultHelpersHandleMissingData(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", result.Duration())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if _, ok := result.FirstAudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
	if result.SampleRate() != 0 {
		t.Fatalf("expected sample rate 0, got %d", result.SampleRate())
	}
}
