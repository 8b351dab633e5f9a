package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"captionsync/internal/captions"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/overlay"
	"captionsync/internal/pipeline"
	"captionsync/internal/preflight"
	"captionsync/internal/services"
)

const (
	uploadField      = "video"
	maxJSONBodyBytes = 8 << 20
	defaultJobsLimit = 50
)

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/status", s.handleStatus)
	api.HandleFunc("POST /api/v1/transcribe", s.handleTranscribe)
	api.HandleFunc("POST /api/v1/captions", s.handleCaptions)
	api.HandleFunc("POST /api/v1/resolve", s.handleResolve)
	api.HandleFunc("GET /api/jobs", s.handleJobs)
	api.HandleFunc("GET /api/jobs/{id}", s.handleJob)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("/api/", authMiddleware(strings.TrimSpace(s.cfg.Paths.APIToken), api))

	return s.requestIDMiddleware(corsMiddleware(s.cfg.Server.AllowedOrigins, mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "server is running"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.Status(r.Context())
	counts := make(map[string]int, len(status.JobCounts))
	for st, n := range status.JobCounts {
		counts[string(st)] = n
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Running:           status.Running,
		PID:               status.PID,
		Address:           status.Address,
		JobsDBPath:        status.JobsDBPath,
		LockFilePath:      status.LockFilePath,
		ActiveJobs:        status.ActiveJobs,
		MaxConcurrentJobs: cap(s.slots),
		JobCounts:         counts,
		Dependencies:      preflight.CheckSystemDeps(s.cfg),
		Preflight:         preflight.RunAll(r.Context(), s.cfg),
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithContext(ctx, s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB))
			return
		}
		logger.Debug("upload rejected", logging.Error(err))
		s.writeError(w, http.StatusBadRequest, "No video uploaded")
		return
	}
	defer file.Close()

	uploadPath, err := s.saveUpload(file, header)
	if err != nil {
		logger.Error("failed to store upload", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(uploadPath)

	release, err := s.acquire(ctx)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "server busy")
		return
	}
	defer release()

	result, err := s.runner.Run(ctx, pipeline.Request{
		VideoPath:  uploadPath,
		SourceName: header.Filename,
		Style:      r.FormValue("style"),
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), JobID: result.JobID})
			return
		}
		logging.ErrorWithContext(logger, "transcription failed", "transcription_failed",
			logging.String(logging.FieldJobID, result.JobID),
			logging.Error(err),
		)
		s.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Transcription failed", JobID: result.JobID})
		return
	}

	s.writeJSON(w, http.StatusOK, TranscribeResponse{
		Success:           true,
		JobID:             result.JobID,
		WebVTT:            result.WebVTT,
		CaptionsAvailable: result.CaptionsAvailable,
		CaptionsError:     result.BuildError,
		Captions:          cueList(result.Track),
		Diagnostics:       newDiagnosticsView(result.Diagnostics),
		Style:             result.Style,
		FPS:               result.FPS,
		DurationInFrames:  result.DurationInFrames,
	})
}

// saveUpload copies the multipart file into the work directory, keeping the
// original extension so ffmpeg can sniff the container.
func (s *Server) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	dir := filepath.Join(s.cfg.Paths.WorkDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	return out.Name(), nil
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	var req CaptionsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.WebVTT != "" && req.Segments != nil {
		s.writeError(w, http.StatusBadRequest, "provide either webvtt or segments, not both")
		return
	}

	opts := s.captionOptions()
	if req.Strict != nil {
		opts.Strict = *req.Strict
	}
	builder := captions.NewBuilder(opts, logging.WithContext(r.Context(), s.logger))

	payload := captions.TextPayload(req.WebVTT)
	if req.Segments != nil {
		payload = captions.SegmentPayload(req.Segments)
	}
	track, diags, err := builder.Build(payload)
	if err != nil {
		s.writeMalformed(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CaptionsResponse{
		CueCount:    track.Len(),
		Duration:    track.Duration(),
		Captions:    cueList(track),
		WebVTT:      captions.FormatVTT(track),
		Diagnostics: newDiagnosticsView(diags),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.FPS <= 0 {
		s.writeError(w, http.StatusBadRequest, "fps must be positive")
		return
	}
	style, err := overlay.ParseStyle(req.Style)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.captionOptions()
	payload := captions.TextPayload(req.WebVTT)
	if len(req.Cues) > 0 {
		// Supplied cues are already display units, so they are cleaned but not split.
		opts.SplitMaxWords = 0
		payload = captions.SegmentPayload(segmentsFromCues(req.Cues))
	}
	var buildError string
	track, _, err := captions.NewBuilder(opts, logging.WithContext(r.Context(), s.logger)).Build(payload)
	if err != nil {
		track, buildError = captions.Track{}, err.Error()
	}

	session := overlay.NewSession(track, req.FPS, style)
	var frames []overlay.Frame
	switch {
	case len(req.Frames) > 0:
		if len(req.Frames) > overlay.MaxRangeFrames {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d frames per request", overlay.MaxRangeFrames))
			return
		}
		frames = make([]overlay.Frame, 0, len(req.Frames))
		for _, frame := range req.Frames {
			frames = append(frames, session.At(frame))
		}
	case req.From != nil && req.To != nil:
		if *req.To < *req.From || *req.To-*req.From >= overlay.MaxRangeFrames {
			s.writeError(w, http.StatusBadRequest, "invalid frame range")
			return
		}
		frames = session.Range(*req.From, *req.To)
	default:
		s.writeError(w, http.StatusBadRequest, "frames or from/to required")
		return
	}
	s.writeJSON(w, http.StatusOK, ResolveResponse{FPS: req.FPS, Style: style, Frames: frames, BuildError: buildError})
}

func segmentsFromCues(cues []captions.Cue) []captions.Segment {
	segments := make([]captions.Segment, len(cues))
	for i, cue := range cues {
		segments[i] = captions.Segment{Start: cue.Start, End: cue.End, Text: cue.Text}
	}
	return segments
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var statuses []jobs.Status
	for _, value := range query["status"] {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			status, ok := jobs.ParseStatus(trimmed)
			if !ok {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
				return
			}
			statuses = append(statuses, status)
		}
	}
	limit := defaultJobsLimit
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	list, err := s.store.List(r.Context(), jobs.ListOptions{Statuses: statuses, Limit: limit})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: list})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, JobResponse{Job: job})
}

func (s *Server) captionOptions() captions.Options {
	return pipeline.CaptionOptions(s.cfg)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeMalformed(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var malformed *captions.MalformedTrackError
	if errors.As(err, &malformed) {
		resp.Reason = malformed.Reason
		resp.Index = malformed.Index
	}
	s.writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
