package preset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format identifies a supported output container/codec.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatOGG  Format = "ogg"
	FormatM4A  Format = "m4a"
)

var allFormats = []Format{FormatMP3, FormatWAV, FormatFLAC, FormatOGG, FormatM4A}

// Formats returns the ordered list of supported output formats.
func Formats() []Format {
	cp := make([]Format, len(allFormats))
	copy(cp, allFormats)
	return cp
}

// ParseFormat converts a string into a known Format.
func ParseFormat(value string) (Format, bool) {
	normalized := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, format := range allFormats {
		if format == normalized {
			return format, true
		}
	}
	return "", false
}

// Extension returns the output filename extension for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// Quality identifies a coarse quality tier mapped to per-format encoder args.
type Quality string

const (
	QualityLow      Quality = "low"
	QualityMedium   Quality = "medium"
	QualityHigh     Quality = "high"
	QualityLossless Quality = "lossless"
)

var allQualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityLossless}

// ParseQuality converts a string into a known Quality.
func ParseQuality(value string) (Quality, bool) {
	normalized := Quality(strings.ToLower(strings.TrimSpace(value)))
	for _, quality := range allQualities {
		if quality == normalized {
			return quality, true
		}
	}
	return "", false
}

var supportedSampleRates = map[int]struct{}{
	22050: {},
	32000: {},
	44100: {},
	48000: {},
}

// Settings is the resolved bundle of output parameters for one conversion.
// It is either copied from a Preset or assembled from manual overrides.
type Settings struct {
	Format      Format  `json:"format"`
	Quality     Quality `json:"quality"`
	SampleRate  int     `json:"sample_rate"`
	Channels    int     `json:"channels"`
	Normalize   bool    `json:"normalize"`
	TrimSilence bool    `json:"trim_silence"`
}

// Validate checks every field against the supported enums.
func (s Settings) Validate() error {
	if _, ok := ParseFormat(string(s.Format)); !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, s.Format)
	}
	if _, ok := ParseQuality(string(s.Quality)); !ok {
		return fmt.Errorf("unsupported quality %q", s.Quality)
	}
	if _, ok := supportedSampleRates[s.SampleRate]; !ok {
		return fmt.Errorf("unsupported sample rate %d", s.SampleRate)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("unsupported channel count %d", s.Channels)
	}
	return nil
}

// Encode serializes the settings for queue persistence.
func (s Settings) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(data), nil
}

// DecodeSettings deserializes settings stored on a queue job.
func DecodeSettings(value string) (Settings, error) {
	var settings Settings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Preset is a named, immutable settings bundle.
type Preset struct {
	Name     string
	Settings Settings
}
