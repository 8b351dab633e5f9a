package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownOutputFormats = map[string]struct{}{
	"vtt":  {},
	"json": {},
}

var knownCaptionStyles = map[string]struct{}{
	"bottom-center": {},
	"top-bar":       {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if err := ensurePositiveMap(map[string]int{
		"transcription.timeout_seconds":     c.Transcription.TimeoutSeconds,
		"transcription.max_concurrent_jobs": c.Transcription.MaxConcurrentJobs,
		"server.max_upload_mb":              c.Server.MaxUploadMB,
	}); err != nil {
		return err
	}
	if c.Transcription.MaxConcurrentJobs > maxSupportedConcurrentJob {
		return fmt.Errorf("transcription.max_concurrent_jobs must be at most %d", maxSupportedConcurrentJob)
	}
	if _, ok := knownOutputFormats[c.Transcription.OutputFormat]; !ok {
		return fmt.Errorf("transcription.output_format %q is not supported (use vtt or json)", c.Transcription.OutputFormat)
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.DefaultFPS <= 0 || c.Captions.DefaultFPS > maxSupportedFPS {
		return fmt.Errorf("captions.default_fps must be between 1 and %d", maxSupportedFPS)
	}
	if _, ok := knownCaptionStyles[c.Captions.DefaultStyle]; !ok {
		return fmt.Errorf("captions.default_style %q is not supported (use bottom-center or top-bar)", c.Captions.DefaultStyle)
	}
	if c.Captions.SplitMaxWords < 0 || c.Captions.SplitWords < 0 {
		return errors.New("captions.split_max_words and captions.split_words must not be negative")
	}
	if c.Captions.SplitMaxWords > 0 && c.Captions.SplitWords == 0 {
		return errors.New("captions.split_words must be positive when captions.split_max_words is set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
