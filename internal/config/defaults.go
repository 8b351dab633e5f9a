package config

const (
	defaultWorkDir            = "~/.local/share/captionsync/work"
	defaultLogDir             = "~/.local/share/captionsync/logs"
	defaultAPIBind            = "127.0.0.1:4000"
	defaultMaxUploadMB        = 512
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultWhisperBinary      = "whisper-cli"
	defaultWhisperModel       = "~/.local/share/captionsync/models/ggml-base.bin"
	defaultLanguage           = "en"
	defaultTimeoutSeconds     = 1800
	defaultMaxConcurrentJobs  = 2
	defaultFPS                = 30
	defaultCaptionStyle       = "bottom-center"
	defaultOutputFormat       = "vtt"
	defaultSplitMaxWords      = 8
	defaultSplitWords         = 6
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxSupportedFPS           = 240
	maxSupportedConcurrentJob = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Server: Server{
			MaxUploadMB: defaultMaxUploadMB,
		},
		Transcription: Transcription{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			WhisperBinary:     defaultWhisperBinary,
			WhisperModel:      defaultWhisperModel,
			Language:          defaultLanguage,
			TimeoutSeconds:    defaultTimeoutSeconds,
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			OutputFormat:      defaultOutputFormat,
		},
		Captions: Captions{
			RequireSignature: true,
			StripMarkup:      true,
			DefaultFPS:       defaultFPS,
			DefaultStyle:     defaultCaptionStyle,
			SplitMaxWords:    defaultSplitMaxWords,
			SplitWords:       defaultSplitWords,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
