package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"forge/internal/config"
	"forge/internal/media/ffprobe"
	"forge/internal/preset"
	"forge/internal/queue"
)

// audioExtensions lists the source formats picked up when a directory is
// added to the queue.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".m4a":  {},
	".aac":  {},
	".wma":  {},
}

func isAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// collectAudioFiles expands the given paths into a sorted list of audio
// files, recursing into directories.
func collectAudioFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range paths {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			if !isAudioFile(expanded) {
				return nil, fmt.Errorf("%s is not a supported audio file", arg)
			}
			add(expanded)
			continue
		}
		walkErr := filepath.WalkDir(expanded, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && isAudioFile(path) {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}

// settingsFlags holds the manual conversion flags shared by convert and
// queue add.
type settingsFlags struct {
	presetName  string
	format      string
	quality     string
	sampleRate  int
	channels    int
	normalize   bool
	trimSilence bool
	outputDir   string
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.presetName, "preset", "p", "", "Preset name (see `forge presets`)")
	cmd.Flags().StringVar(&f.format, "format", "", "Target format (mp3, wav, flac, ogg, m4a)")
	cmd.Flags().StringVar(&f.quality, "quality", "", "Quality tier (low, medium, high, lossless)")
	cmd.Flags().IntVar(&f.sampleRate, "sample-rate", 0, "Output sample rate in Hz")
	cmd.Flags().IntVar(&f.channels, "channels", 0, "Output channel count")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "Apply loudness normalization")
	cmd.Flags().BoolVar(&f.trimSilence, "trim-silence", false, "Trim leading silence")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
}

// resolve produces the effective settings: the named preset (default High
// MP3) with any manual flags layered on top.
func (f *settingsFlags) resolve(cmd *cobra.Command, registry *preset.Registry) (preset.Settings, string, error) {
	name := strings.TrimSpace(f.presetName)
	if name == "" {
		name = "High MP3"
	}
	p, err := registry.Get(name)
	if err != nil {
		return preset.Settings{}, "", err
	}
	settings := p.Settings
	presetName := p.Name

	if cmd.Flags().Changed("format") {
		format, ok := preset.ParseFormat(f.format)
		if !ok {
			return preset.Settings{}, "", fmt.Errorf("unsupported format %q", f.format)
		}
		settings.Format = format
		presetName = ""
	}
	if cmd.Flags().Changed("quality") {
		quality, ok := preset.ParseQuality(f.quality)
		if !ok {
			return preset.Settings{}, "", fmt.Errorf("unsupported quality %q", f.quality)
		}
		settings.Quality = quality
		presetName = ""
	}
	if cmd.Flags().Changed("sample-rate") {
		settings.SampleRate = f.sampleRate
		presetName = ""
	}
	if cmd.Flags().Changed("channels") {
		settings.Channels = f.channels
		presetName = ""
	}
	if cmd.Flags().Changed("normalize") {
		settings.Normalize = f.normalize
		presetName = ""
	}
	if cmd.Flags().Changed("trim-silence") {
		settings.TrimSilence = f.trimSilence
		presetName = ""
	}

	if err := settings.Validate(); err != nil {
		return preset.Settings{}, "", err
	}
	return settings, presetName, nil
}

func (f *settingsFlags) resolveOutputDir(cfg *config.Config) (string, error) {
	if dir := strings.TrimSpace(f.outputDir); dir != "" {
		return config.ExpandPath(dir)
	}
	return cfg.Paths.OutputDir, nil
}

// enqueueFiles inserts one Pending job per file, probing size and duration
// where possible.
func enqueueFiles(ctx context.Context, cfg *config.Config, store *queue.Store, files []string, settings preset.Settings, presetName, outputDir string) ([]*queue.Job, error) {
	settingsJSON, err := settings.Encode()
	if err != nil {
		return nil, err
	}

	jobs := make([]*queue.Job, 0, len(files))
	for _, file := range files {
		params := queue.NewJobParams{
			SourcePath:   file,
			OutputDir:    outputDir,
			PresetName:   presetName,
			SettingsJSON: settingsJSON,
		}
		if info, err := os.Stat(file); err == nil {
			params.SourceSize = info.Size()
		}
		if probed, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), file); err == nil {
			params.SourceDurationMS = probed.Duration().Milliseconds()
		}
		job, err := store.NewJob(ctx, params)
		if err != nil {
			return jobs, fmt.Errorf("enqueue %s: %w", file, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
