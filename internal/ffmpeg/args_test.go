package ffmpeg_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"forge/internal/ffmpeg"
	"forge/internal/preset"
)

func voiceNoteSettings() preset.Settings {
	return preset.Settings{
		Format:      preset.FormatOGG,
		Quality:     preset.QualityMedium,
		SampleRate:  32000,
		Channels:    1,
		Normalize:   true,
		TrimSilence: true,
	}
}

func TestBuildArgsDeterministic(t *testing.T) {
	settings := voiceNoteSettings()
	filters := ffmpeg.DefaultFilterOptions()

	first, err := ffmpeg.BuildArgs("speech.wav", "out/speech.ogg", settings, filters)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	second, err := ffmpeg.BuildArgs("speech.wav", "out/speech.ogg", settings, filters)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical argument sequences:\n%v\n%v", first, second)
	}
}

func TestBuildArgsVoiceNoteIntent(t *testing.T) {
	args, err := ffmpeg.BuildArgs("speech.wav", "out/speech.ogg", voiceNoteSettings(), ffmpeg.DefaultFilterOptions())
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	joined := strings.Join(args, " ")

	for _, fragment := range []string{
		"-i speech.wav",
		"-ac 1",
		"-ar 32000",
		"loudnorm=I=-14:TP=-1.5:LRA=11",
		"silenceremove=start_periods=1:start_threshold=-45dB:start_silence=0.4",
		"-q:a 6",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args %q", fragment, joined)
		}
	}
	if args[len(args)-1] != "out/speech.ogg" {
		t.Fatalf("expected output path last, got %v", args)
	}
	if idx := strings.Index(joined, "silenceremove"); idx > strings.Index(joined, "loudnorm") {
		t.Fatalf("silence trim should precede loudnorm: %q", joined)
	}
}

func TestBuildArgsOmitsFiltersWhenDisabled(t *testing.T) {
	settings := preset.Settings{
		Format:     preset.FormatMP3,
		Quality:    preset.QualityHigh,
		SampleRate: 44100,
		Channels:   2,
	}
	args, err := ffmpeg.BuildArgs("in.flac", "out.mp3", settings, ffmpeg.DefaultFilterOptions())
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-af") {
		t.Fatalf("expected no filter stage, got %q", joined)
	}
	if !strings.Contains(joined, "-b:a 320k") {
		t.Fatalf("expected high mp3 bitrate, got %q", joined)
	}
}

func TestBuildArgsFormatMaps(t *testing.T) {
	cases := []struct {
		format   preset.Format
		quality  preset.Quality
		expected string
	}{
		{preset.FormatMP3, preset.QualityLow, "-b:a 128k"},
		{preset.FormatMP3, preset.QualityMedium, "-b:a 192k"},
		{preset.FormatWAV, preset.QualityHigh, "-acodec pcm_s16le"},
		{preset.FormatFLAC, preset.QualityLossless, "-acodec flac -compression_level 5"},
		{preset.FormatOGG, preset.QualityHigh, "-q:a 9"},
		{preset.FormatOGG, preset.QualityLossless, "-q:a 10"},
		{preset.FormatM4A, preset.QualityHigh, "-c:a aac -b:a 256k"},
	}
	for _, tc := range cases {
		t.Run(string(tc.format)+"/"+string(tc.quality), func(t *testing.T) {
			settings := preset.Settings{Format: tc.format, Quality: tc.quality, SampleRate: 44100, Channels: 2}
			args, err := ffmpeg.BuildArgs("in.wav", "out", settings, ffmpeg.DefaultFilterOptions())
			if err != nil {
				t.Fatalf("BuildArgs: %v", err)
			}
			if joined := strings.Join(args, " "); !strings.Contains(joined, tc.expected) {
				t.Fatalf("expected %q in %q", tc.expected, joined)
			}
		})
	}
}

func TestBuildArgsUnsupportedFormat(t *testing.T) {
	settings := preset.Settings{Format: "opus", Quality: preset.QualityHigh, SampleRate: 44100, Channels: 2}
	_, err := ffmpeg.BuildArgs("in.wav", "out.opus", settings, ffmpeg.DefaultFilterOptions())
	if !errors.Is(err, preset.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestBuildAvoidsInputOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	settings := preset.Settings{Format: preset.FormatMP3, Quality: preset.QualityHigh, SampleRate: 44100, Channels: 2}
	output, args, err := ffmpeg.Build(input, dir, settings, ffmpeg.DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if output == input {
		t.Fatal("output path must differ from input path")
	}
	if args[len(args)-1] != output {
		t.Fatalf("expected args to end with %q, got %v", output, args)
	}
}
