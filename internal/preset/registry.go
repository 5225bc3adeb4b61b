package preset

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a preset name is unknown.
	ErrNotFound = errors.New("unknown preset")
	// ErrDuplicateName is returned when a preset name collides with an existing one.
	ErrDuplicateName = errors.New("preset name already registered")
	// ErrUnsupportedFormat is returned for formats outside the supported enum.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Registry holds the built-in presets plus any registered at runtime.
// Lookups are case-insensitive; listing preserves registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	presets map[string]Preset
}

// NewRegistry constructs a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset, len(builtins))}
	for _, p := range builtins {
		r.order = append(r.order, p.Name)
		r.presets[normalizeName(p.Name)] = p
	}
	return r
}

// Get returns the preset registered under name.
func (r *Registry) Get(name string) (Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[normalizeName(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(name))
	}
	return p, nil
}

// Names returns preset names in seed/registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]string, len(r.order))
	copy(cp, r.order)
	return cp
}

// Register adds a user-defined preset for the lifetime of the process.
func (r *Registry) Register(p Preset) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("preset name must not be empty")
	}
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalizeName(name)
	if _, exists := r.presets[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	p.Name = name
	r.order = append(r.order, name)
	r.presets[key] = p
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Built-in presets. These mirror the conversion profiles forge ships with
// and are read-only; registering over one of their names is a collision.
var builtins = []Preset{
	{
		Name: "High MP3",
		Settings: Settings{
			Format:     FormatMP3,
			Quality:    QualityHigh,
			SampleRate: 44100,
			Channels:   2,
		},
	},
	{
		Name: "Lossless",
		Settings: Settings{
			Format:     FormatFLAC,
			Quality:    QualityLossless,
			SampleRate: 48000,
			Channels:   2,
		},
	},
	{
		Name: "Podcast",
		Settings: Settings{
			Format:      FormatM4A,
			Quality:     QualityMedium,
			SampleRate:  44100,
			Channels:    1,
			Normalize:   true,
			TrimSilence: true,
		},
	},
	{
		Name: "Voice Note",
		Settings: Settings{
			Format:      FormatOGG,
			Quality:     QualityMedium,
			SampleRate:  32000,
			Channels:    1,
			Normalize:   true,
			TrimSilence: true,
		},
	},
}
