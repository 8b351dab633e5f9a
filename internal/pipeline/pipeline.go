package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"captionsync/internal/captions"
	"captionsync/internal/config"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/media/ffprobe"
	"captionsync/internal/overlay"
	"captionsync/internal/services"
	"captionsync/internal/transcribe"
)

// DefaultDurationFrames is reported when neither ffprobe nor the track can
// supply a duration.
const DefaultDurationFrames = 300

const audioFileName = "audio.wav"

// Transcriber extracts audio from a video and turns it into a WebVTT payload,
// or a whisper.cpp JSON document when transcription.output_format is json.
type Transcriber interface {
	ExtractAudio(ctx context.Context, video, dest string) error
	Transcribe(ctx context.Context, audio, outputBase string) (string, error)
}

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Request describes one transcription job.
type Request struct {
	VideoPath  string
	SourceName string
	Style      string
}

// Result is what a finished job hands back to the caller.
type Result struct {
	JobID string
	// WebVTT is whisper's payload in vtt mode and the formatted track in json mode.
	WebVTT            string
	Track             captions.Track
	Diagnostics       captions.Diagnostics
	CaptionsAvailable bool
	// BuildError is the reason captions are unavailable, if any.
	BuildError       string
	Style            overlay.Style
	FPS              int
	DurationInFrames int
}

// Pipeline coordinates the transcription stages for uploaded videos.
type Pipeline struct {
	cfg         *config.Config
	store       *jobs.Store
	transcriber Transcriber
	probe       Prober
	captionOpts captions.Options
	logger      *slog.Logger
	keepWorkDir bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithTranscriber replaces the ffmpeg/whisper transcriber.
func WithTranscriber(t Transcriber) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.transcriber = t
		}
	}
}

// WithProber replaces the ffprobe inspection used for frame rate and duration.
func WithProber(probe Prober) Option {
	return func(p *Pipeline) {
		if probe != nil {
			p.probe = probe
		}
	}
}

// WithKeepWorkDir leaves per-job working files on disk after the run.
func WithKeepWorkDir(keep bool) Option {
	return func(p *Pipeline) {
		p.keepWorkDir = keep
	}
}

// New constructs a pipeline backed by the job ledger.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	p := &Pipeline{
		cfg:         cfg,
		store:       store,
		transcriber: transcribe.NewService(transcribe.ConfigFrom(cfg)),
		probe:       ffprobe.Inspect,
		captionOpts: CaptionOptions(cfg),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CaptionOptions maps the [captions] config section onto builder options.
func CaptionOptions(cfg *config.Config) captions.Options {
	if cfg == nil {
		return captions.DefaultOptions()
	}
	return captions.Options{
		Strict:           cfg.Captions.Strict,
		RequireSignature: cfg.Captions.RequireSignature,
		StripMarkup:      cfg.Captions.StripMarkup,
		SplitMaxWords:    cfg.Captions.SplitMaxWords,
		SplitWords:       cfg.Captions.SplitWords,
	}
}

// Run executes the full job. The returned error is non-nil only when the job
// failed before a caption outcome could be recorded.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	sourceName := strings.TrimSpace(req.SourceName)
	if sourceName == "" {
		sourceName = filepath.Base(req.VideoPath)
	}
	job, err := p.store.Create(ctx, sourceName, req.Style)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "", "create job", "", err)
	}
	result := Result{JobID: job.ID}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_name", sourceName),
	)

	if err := p.run(ctx, req, &result); err != nil {
		p.fail(ctx, logger, job.ID, err)
		return result, err
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Bool("captions_available", result.CaptionsAvailable),
		logging.Int("cue_count", result.Track.Len()),
		logging.Int("fps", result.FPS),
		logging.Int("duration_in_frames", result.DurationInFrames),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, result *Result) error {
	style, err := p.resolveStyle(req.Style)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "resolve style", "", err)
	}
	result.Style = style

	if strings.TrimSpace(req.VideoPath) == "" {
		return services.Wrap(services.ErrValidation, "", "validate request", "video path required", nil)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return services.Wrap(services.ErrNotFound, "", "stat video", req.VideoPath, err)
	}

	workDir := filepath.Join(p.cfg.Paths.WorkDir, result.JobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "create work dir", workDir, err)
	}
	if !p.keepWorkDir {
		defer p.cleanup(ctx, workDir)
	}

	audio := filepath.Join(workDir, audioFileName)
	err = p.stage(ctx, result.JobID, jobs.StatusExtracting, func(ctx context.Context) error {
		return p.transcriber.ExtractAudio(ctx, req.VideoPath, audio)
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result.JobID, jobs.StatusTranscribing, func(ctx context.Context) error {
		payload, err := p.transcriber.Transcribe(ctx, audio, strings.TrimSuffix(audio, filepath.Ext(audio)))
		result.WebVTT = payload
		return err
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result.JobID, jobs.StatusBuilding, func(ctx context.Context) error {
		p.buildTrack(ctx, result)
		p.measure(ctx, req.VideoPath, result)
		return nil
	})
	if err != nil {
		return err
	}

	outcome := jobs.Outcome{
		CueCount:          result.Track.Len(),
		DroppedCount:      result.Diagnostics.Dropped(),
		ClippedCount:      result.Diagnostics.Clipped(),
		CaptionsAvailable: result.CaptionsAvailable,
		FPS:               result.FPS,
		DurationFrames:    result.DurationInFrames,
		Message:           result.BuildError,
	}
	if err := p.store.Complete(ctx, result.JobID, outcome); err != nil {
		return services.Wrap(services.ErrTransient, "", "record outcome", "", err)
	}
	return nil
}

func (p *Pipeline) resolveStyle(value string) (overlay.Style, error) {
	if strings.TrimSpace(value) == "" {
		value = p.cfg.Captions.DefaultStyle
	}
	return overlay.ParseStyle(value)
}

// buildTrack converts the whisper payload into a track. A malformed payload
// leaves the result with an empty track instead of failing the job.
func (p *Pipeline) buildTrack(ctx context.Context, result *Result) {
	logger := logging.WithContext(ctx, p.logger)
	builder := captions.NewBuilder(p.captionOpts, logger)
	segmentMode := p.cfg.Transcription.OutputFormat == transcribe.FormatJSON
	track, diags, err := parsePayload(builder, result.WebVTT, segmentMode)
	result.Diagnostics = diags
	if segmentMode {
		defer func() { result.WebVTT = captions.FormatVTT(result.Track) }()
	}
	if err != nil {
		result.Track = captions.Track{}
		result.BuildError = err.Error()
		logging.WarnWithContext(logger, "captions unavailable", "captions_unavailable",
			logging.String(logging.FieldErrorHint, "whisper output could not be parsed"),
			logging.String(logging.FieldImpact, "video renders without captions"),
			logging.Error(err),
		)
		return
	}
	result.Track = track
	if track.IsEmpty() {
		result.BuildError = "no captions recognized"
		return
	}
	result.CaptionsAvailable = true
}

// parsePayload builds from WebVTT text, or from whisper.cpp JSON segments so
// the readable split applies.
func parsePayload(builder *captions.Builder, raw string, segments bool) (captions.Track, captions.Diagnostics, error) {
	if !segments {
		return builder.BuildText(raw)
	}
	decoded, err := captions.DecodeSegments([]byte(raw), captions.SegmentFormatJSON)
	if err != nil {
		return captions.Track{}, captions.Diagnostics{}, err
	}
	return builder.BuildSegments(decoded)
}

// measure fills FPS and DurationInFrames from ffprobe, falling back to the
// configured frame rate and the last cue end.
func (p *Pipeline) measure(ctx context.Context, video string, result *Result) {
	fps := p.cfg.Captions.DefaultFPS
	var seconds float64

	probe, err := p.probe(ctx, p.cfg.Transcription.FFprobeBinary, video)
	if err != nil {
		logging.WithContext(ctx, p.logger).Debug("ffprobe unavailable, using defaults", logging.Error(err))
	} else {
		if rate, ok := probe.RoundedFrameRate(); ok {
			fps = rate
		}
		seconds = probe.DurationSeconds()
	}
	if seconds <= 0 {
		seconds = result.Track.Duration()
	}

	result.FPS = fps
	result.DurationInFrames = captions.FramesForDuration(seconds, fps)
	if result.DurationInFrames <= 0 {
		result.DurationInFrames = DefaultDurationFrames
	}
}

func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	status := services.FailureStatus(cause)
	logging.ErrorWithContext(logger, "job failed", "job_failure",
		logging.String("resolved_status", string(status)),
		logging.Error(cause),
	)
	// The request context may already be canceled; the ledger write must still land.
	persistCtx := context.WithoutCancel(ctx)
	if err := p.store.Fail(persistCtx, jobID, status, cause.Error()); err != nil && !errors.Is(err, jobs.ErrFinished) {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
}

func (p *Pipeline) cleanup(ctx context.Context, workDir string) {
	if err := os.RemoveAll(workDir); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to remove work dir",
			logging.String("path", workDir),
			logging.Error(err),
		)
	}
}
