package config

const (
	defaultOutputDir          = "~/Music/forge"
	defaultLogDir             = "~/.local/share/forge/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultWorkers            = 1
	defaultJobTimeout         = 0
	defaultNtfyTimeout        = 10
	defaultLoudnormI          = -14.0
	defaultLoudnormTP         = -1.5
	defaultLoudnormLRA        = 11.0
	defaultSilenceThresholdDB = -45.0
	defaultSilenceMinDuration = 0.4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		FFmpeg: FFmpeg{
			LoudnormI:          defaultLoudnormI,
			LoudnormTP:         defaultLoudnormTP,
			LoudnormLRA:        defaultLoudnormLRA,
			SilenceThresholdDB: defaultSilenceThresholdDB,
			SilenceMinDuration: defaultSilenceMinDuration,
		},
		Batch: Batch{
			Workers:    defaultWorkers,
			JobTimeout: defaultJobTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
