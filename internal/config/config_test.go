package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"captionsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("CAPTIONSYNC_API_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "captionsync", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantModel := filepath.Join(tempHome, ".local", "share", "captionsync", "models", "ggml-base.bin")
	if cfg.Transcription.WhisperModel != wantModel {
		t.Fatalf("unexpected whisper model: got %q want %q", cfg.Transcription.WhisperModel, wantModel)
	}
	if cfg.Paths.APIBind != "127.0.0.1:4000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Captions.Strict {
		t.Fatal("expected lenient caption parsing by default")
	}
	if !cfg.Captions.RequireSignature {
		t.Fatal("expected WEBVTT signature to be required by default")
	}
	if cfg.Captions.DefaultFPS != 30 {
		t.Fatalf("expected default fps 30, got %d", cfg.Captions.DefaultFPS)
	}
	if cfg.Captions.DefaultStyle != "bottom-center" {
		t.Fatalf("expected bottom-center default style, got %q", cfg.Captions.DefaultStyle)
	}
	if cfg.Transcription.Language != "en" {
		t.Fatalf("expected language en, got %q", cfg.Transcription.Language)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("WHISPER_MODEL", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "captionsync.toml")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
			LogDir  string `toml:"log_dir"`
		} `toml:"paths"`
		Server struct {
			AllowedOrigins []string `toml:"allowed_origins"`
		} `toml:"server"`
		Captions struct {
			Strict       bool   `toml:"strict"`
			DefaultFPS   int    `toml:"default_fps"`
			DefaultStyle string `toml:"default_style"`
		} `toml:"captions"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Server.AllowedOrigins = []string{"http://localhost:3000/", " http://localhost:3000", "", "https://studio.example.com"}
	custom.Captions.Strict = true
	custom.Captions.DefaultFPS = 25
	custom.Captions.DefaultStyle = "TOP-BAR"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if !cfg.Captions.Strict {
		t.Fatal("expected strict mode from file")
	}
	if cfg.Captions.DefaultFPS != 25 {
		t.Fatalf("expected fps 25, got %d", cfg.Captions.DefaultFPS)
	}
	if cfg.Captions.DefaultStyle != "top-bar" {
		t.Fatalf("expected normalized style top-bar, got %q", cfg.Captions.DefaultStyle)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("expected deduplicated origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected first origin %q", cfg.Server.AllowedOrigins[0])
	}
	if cfg.JobsDBPath() != filepath.Join(tempDir, "logs", "jobs.db") {
		t.Fatalf("unexpected jobs db path %q", cfg.JobsDBPath())
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CAPTIONSYNC_API_TOKEN", "env-token")
	modelPath := filepath.Join(t.TempDir(), "ggml-small.bin")
	t.Setenv("WHISPER_MODEL", modelPath)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Fatalf("expected api token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Transcription.WhisperModel != modelPath {
		t.Fatalf("expected whisper model from env, got %q", cfg.Transcription.WhisperModel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"fps", func(c *config.Config) { c.Captions.DefaultFPS = -1 }, "captions.default_fps"},
		{"style", func(c *config.Config) { c.Captions.DefaultStyle = "marquee" }, "captions.default_style"},
		{"timeout", func(c *config.Config) { c.Transcription.TimeoutSeconds = -5 }, "transcription.timeout_seconds"},
		{"jobs", func(c *config.Config) { c.Transcription.MaxConcurrentJobs = 1000 }, "transcription.max_concurrent_jobs"},
		{"output format", func(c *config.Config) { c.Transcription.OutputFormat = "srt" }, "transcription.output_format"},
		{"split words", func(c *config.Config) { c.Captions.SplitWords = -1 }, "captions.split_words"},
		{"split without size", func(c *config.Config) { c.Captions.SplitWords = 0 }, "captions.split_words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHISPER_MODEL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Transcription.WhisperBinary != "whisper-cli" {
		t.Fatalf("unexpected whisper binary %q", cfg.Transcription.WhisperBinary)
	}
}

func TestLoadNormalizesLanguage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHISPER_MODEL", "")
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{"English", "en", false},
		{"pt-BR", "pt", false},
		{"auto", "auto", false},
		{"klingon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "captionsync.toml")
			content := "[transcription]\nlanguage = \"" + tt.value + "\"\n"
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			cfg, _, _, err := config.Load(path)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "transcription.language") {
					t.Fatalf("expected language error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Transcription.Language != tt.want {
				t.Fatalf("expected language %q, got %q", tt.want, cfg.Transcription.Language)
			}
		})
	}
}

func TestLoadReadableSplitSettings(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHISPER_MODEL", "")
	path := filepath.Join(t.TempDir(), "captionsync.toml")
	content := "[transcription]\noutput_format = \" JSON \"\n\n[captions]\nsplit_max_words = 10\nsplit_words = 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transcription.OutputFormat != "json" {
		t.Fatalf("output format = %q", cfg.Transcription.OutputFormat)
	}
	if cfg.Captions.SplitMaxWords != 10 || cfg.Captions.SplitWords != 6 {
		t.Fatalf("split = %d/%d, want 10/6", cfg.Captions.SplitMaxWords, cfg.Captions.SplitWords)
	}
}
