package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"forge/internal/fileutil"
	"forge/internal/preset"
)

// FilterOptions carries the tunables for the optional audio filter stages.
type FilterOptions struct {
	LoudnormI          float64
	LoudnormTP         float64
	LoudnormLRA        float64
	SilenceThresholdDB float64
	SilenceMinDuration float64
}

// DefaultFilterOptions returns the stock filter parameters.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		LoudnormI:          -14,
		LoudnormTP:         -1.5,
		LoudnormLRA:        11,
		SilenceThresholdDB: -45,
		SilenceMinDuration: 0.4,
	}
}

// BuildArgs translates one conversion into an ffmpeg argument list. It is a
// pure function of its inputs: no filesystem access, no execution.
func BuildArgs(inputPath, outputPath string, settings preset.Settings, filters FilterOptions) ([]string, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-nostats",
		"-progress", "pipe:1",
		"-i", inputPath,
		"-ac", strconv.Itoa(settings.Channels),
		"-ar", strconv.Itoa(settings.SampleRate),
	}

	if chain := filterChain(settings, filters); chain != "" {
		args = append(args, "-af", chain)
	}

	qualityArgs, err := formatArgs(settings.Format, settings.Quality)
	if err != nil {
		return nil, err
	}
	args = append(args, qualityArgs...)
	args = append(args, outputPath)
	return args, nil
}

// Build selects a collision-free output path inside outputDir and returns it
// together with the argument list for the conversion.
func Build(inputPath, outputDir string, settings preset.Settings, filters FilterOptions) (string, []string, error) {
	if err := settings.Validate(); err != nil {
		return "", nil, err
	}
	outputPath := fileutil.UniquePath(inputPath, outputDir, settings.Format.Extension())
	args, err := BuildArgs(inputPath, outputPath, settings, filters)
	if err != nil {
		return "", nil, err
	}
	return outputPath, args, nil
}

// filterChain assembles the -af argument. Silence trim runs before loudness
// normalization so the measurement excludes the removed lead-in.
func filterChain(settings preset.Settings, filters FilterOptions) string {
	var stages []string
	if settings.TrimSilence {
		stages = append(stages, fmt.Sprintf(
			"silenceremove=start_periods=1:start_threshold=%sdB:start_silence=%s",
			formatFloat(filters.SilenceThresholdDB),
			formatFloat(filters.SilenceMinDuration),
		))
	}
	if settings.Normalize {
		stages = append(stages, fmt.Sprintf(
			"loudnorm=I=%s:TP=%s:LRA=%s",
			formatFloat(filters.LoudnormI),
			formatFloat(filters.LoudnormTP),
			formatFloat(filters.LoudnormLRA),
		))
	}
	return strings.Join(stages, ",")
}

func formatArgs(format preset.Format, quality preset.Quality) ([]string, error) {
	switch format {
	case preset.FormatMP3:
		return []string{"-b:a", pick(quality, "128k", "192k", "320k", "320k")}, nil
	case preset.FormatWAV:
		return []string{"-acodec", "pcm_s16le"}, nil
	case preset.FormatFLAC:
		return []string{"-acodec", "flac", "-compression_level", "5"}, nil
	case preset.FormatOGG:
		return []string{"-q:a", pick(quality, "3", "6", "9", "10")}, nil
	case preset.FormatM4A:
		return []string{"-c:a", "aac", "-b:a", pick(quality, "128k", "192k", "256k", "320k")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", preset.ErrUnsupportedFormat, format)
	}
}

func pick(quality preset.Quality, low, medium, high, lossless string) string {
	switch quality {
	case preset.QualityLow:
		return low
	case preset.QualityHigh:
		return high
	case preset.QualityLossless:
		return lossless
	default:
		return medium
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
