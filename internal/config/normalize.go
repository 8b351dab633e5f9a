package config

import (
	"fmt"
	"os"
	"strings"

	"captionsync/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeCaptions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("CAPTIONSYNC_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeServer() {
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		normalized := strings.TrimRight(strings.TrimSpace(origin), "/")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		origins = append(origins, normalized)
	}
	c.Server.AllowedOrigins = origins
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription
	t.FFmpegBinary = strings.TrimSpace(t.FFmpegBinary)
	if t.FFmpegBinary == "" {
		t.FFmpegBinary = defaultFFmpegBinary
	}
	t.FFprobeBinary = strings.TrimSpace(t.FFprobeBinary)
	if t.FFprobeBinary == "" {
		t.FFprobeBinary = defaultFFprobeBinary
	}
	t.WhisperBinary = strings.TrimSpace(t.WhisperBinary)
	if t.WhisperBinary == "" {
		t.WhisperBinary = defaultWhisperBinary
	}
	t.WhisperModel = strings.TrimSpace(t.WhisperModel)
	if value, ok := os.LookupEnv("WHISPER_MODEL"); ok && strings.TrimSpace(value) != "" {
		t.WhisperModel = strings.TrimSpace(value)
	}
	if t.WhisperModel == "" {
		t.WhisperModel = defaultWhisperModel
	}
	var err error
	if t.WhisperModel, err = expandPath(t.WhisperModel); err != nil {
		return fmt.Errorf("transcription.whisper_model: %w", err)
	}
	t.Language = strings.TrimSpace(t.Language)
	if t.Language == "" {
		t.Language = defaultLanguage
	}
	code, ok := language.WhisperCode(t.Language)
	if !ok {
		return fmt.Errorf("transcription.language %q is not a recognized language", t.Language)
	}
	t.Language = code
	if t.TimeoutSeconds == 0 {
		t.TimeoutSeconds = defaultTimeoutSeconds
	}
	if t.MaxConcurrentJobs == 0 {
		t.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	t.OutputFormat = strings.ToLower(strings.TrimSpace(t.OutputFormat))
	if t.OutputFormat == "" {
		t.OutputFormat = defaultOutputFormat
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	if c.Captions.DefaultFPS == 0 {
		c.Captions.DefaultFPS = defaultFPS
	}
	c.Captions.DefaultStyle = strings.ToLower(strings.TrimSpace(c.Captions.DefaultStyle))
	if c.Captions.DefaultStyle == "" {
		c.Captions.DefaultStyle = defaultCaptionStyle
	}
	if c.Captions.SplitMaxWords > 0 && c.Captions.SplitWords == 0 {
		c.Captions.SplitWords = defaultSplitWords
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
