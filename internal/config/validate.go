package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return fmt.Errorf("paths.output_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.Workers > 32 {
		return fmt.Errorf("batch.workers must be at most 32, got %d", c.Batch.Workers)
	}
	if c.Batch.JobTimeout < 0 {
		return fmt.Errorf("batch.job_timeout must not be negative, got %d", c.Batch.JobTimeout)
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.SilenceMinDuration < 0 {
		return fmt.Errorf("ffmpeg.silence_min_duration must not be negative")
	}
	if c.FFmpeg.LoudnormI > 0 {
		return fmt.Errorf("ffmpeg.loudnorm_i is a LUFS target and must not be positive, got %v", c.FFmpeg.LoudnormI)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return fmt.Errorf("notifications.request_timeout must be positive when ntfy_topic is set")
	}
	return nil
}
