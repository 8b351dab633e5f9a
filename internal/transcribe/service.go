package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"captionsync/internal/config"
	"captionsync/internal/services"
)

const (
	// FFmpegCommand is used when no ffmpeg binary is configured.
	FFmpegCommand = "ffmpeg"
	// WhisperCommand is used when no whisper.cpp binary is configured.
	WhisperCommand = "whisper-cli"
	// DefaultLanguage matches whisper.cpp's English default.
	DefaultLanguage = "en"
	// FormatVTT and FormatJSON select whisper.cpp's --output-vtt or --output-json.
	FormatVTT  = "vtt"
	FormatJSON = "json"

	stageExtract    = "extract"
	stageTranscribe = "transcribe"
)

// CommandRunner executes an external command. Implementations must honor ctx.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Config describes the external tools used for transcription.
type Config struct {
	FFmpegBinary  string
	WhisperBinary string
	Model         string
	Language      string
	// OutputFormat is FormatVTT (the default) or FormatJSON.
	OutputFormat string
	// Timeout bounds each external command. Zero disables the limit.
	Timeout time.Duration
}

// ConfigFrom maps the transcription section of the application config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	t := cfg.Transcription
	return Config{
		FFmpegBinary:  t.FFmpegBinary,
		WhisperBinary: t.WhisperBinary,
		Model:         t.WhisperModel,
		Language:      t.Language,
		OutputFormat:  t.OutputFormat,
		Timeout:       time.Duration(t.TimeoutSeconds) * time.Second,
	}
}

// Service runs ffmpeg and whisper.cpp.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a transcription service, filling blank binaries and
// language with defaults.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(cfg.WhisperBinary) == "" {
		cfg.WhisperBinary = WhisperCommand
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.OutputFormat != FormatJSON {
		cfg.OutputFormat = FormatVTT
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// OutputFormat reports whether Transcribe returns WebVTT or whisper.cpp JSON.
func (s *Service) OutputFormat() string {
	return s.cfg.OutputFormat
}

// Model returns the configured whisper model path.
func (s *Service) Model() string {
	return s.cfg.Model
}

// ExtractAudio writes a 16 kHz mono PCM WAV of the video's audio to dest.
func (s *Service) ExtractAudio(ctx context.Context, video, dest string) error {
	if strings.TrimSpace(video) == "" {
		return services.Wrap(services.ErrValidation, stageExtract, "extract audio", "video path required", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, stageExtract, "extract audio", "destination path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageExtract, "ensure audio dir", "", err)
	}
	if err := s.run(ctx, s.cfg.FFmpegBinary, BuildExtractArgs(video, dest)...); err != nil {
		return s.classify(ctx, err, stageExtract, "run ffmpeg")
	}
	return nil
}

// Transcribe runs whisper.cpp on audio and returns the document it wrote to
// outputBase + ".vtt" (or ".json" when OutputFormat is FormatJSON), with
// surrounding whitespace trimmed.
func (s *Service) Transcribe(ctx context.Context, audio, outputBase string) (string, error) {
	if strings.TrimSpace(audio) == "" {
		return "", services.Wrap(services.ErrValidation, stageTranscribe, "transcribe", "audio path required", nil)
	}
	if strings.TrimSpace(s.cfg.Model) == "" {
		return "", services.Wrap(services.ErrConfiguration, stageTranscribe, "transcribe", "whisper model not configured", nil)
	}
	if outputBase == "" {
		outputBase = strings.TrimSuffix(audio, filepath.Ext(audio))
	}
	if err := s.run(ctx, s.cfg.WhisperBinary, BuildWhisperArgs(s.cfg.Model, audio, s.cfg.Language, outputBase, s.cfg.OutputFormat)...); err != nil {
		return "", s.classify(ctx, err, stageTranscribe, "run whisper")
	}

	outputPath := outputBase + "." + s.cfg.OutputFormat
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageTranscribe, "read output", outputPath, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// BuildExtractArgs returns the ffmpeg arguments for audio extraction.
func BuildExtractArgs(video, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dest,
	}
}

// BuildWhisperArgs returns the whisper.cpp arguments that write
// outputBase + "." + format, where format is FormatVTT or FormatJSON.
func BuildWhisperArgs(model, audio, language, outputBase, format string) []string {
	output := "--output-vtt"
	if format == FormatJSON {
		output = "--output-json"
	}
	return []string{
		"-m", model,
		"-f", audio,
		"--language", language,
		output,
		"--output-file", outputBase,
	}
}

// run executes a command under the configured timeout, using the custom
// runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if s.commandRunner != nil {
		if err := s.commandRunner(ctx, name, args...); err != nil {
			return err
		}
		return ctx.Err()
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) classify(parent context.Context, err error, stage, op string) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%s: %w", op, parent.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stage, op, fmt.Sprintf("exceeded %s", s.cfg.Timeout), err)
	default:
		return services.Wrap(services.ErrExternalTool, stage, op, "", err)
	}
}
