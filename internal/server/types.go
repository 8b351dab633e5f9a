package server

import (
	"captionsync/internal/captions"
	"captionsync/internal/deps"
	"captionsync/internal/jobs"
	"captionsync/internal/overlay"
	"captionsync/internal/preflight"
)

// StatusResponse aggregates server runtime information for API consumers.
type StatusResponse struct {
	Running           bool               `json:"running"`
	PID               int                `json:"pid"`
	Address           string             `json:"address"`
	JobsDBPath        string             `json:"jobs_db_path"`
	LockFilePath      string             `json:"lock_file_path"`
	ActiveJobs        int                `json:"active_jobs"`
	MaxConcurrentJobs int                `json:"max_concurrent_jobs"`
	JobCounts         map[string]int     `json:"job_counts"`
	Dependencies      []deps.Status      `json:"dependencies"`
	Preflight         []preflight.Result `json:"preflight"`
}

// DiagnosticsView summarizes per-cue adjustments made while building a track.
type DiagnosticsView struct {
	Dropped int              `json:"dropped"`
	Clipped int              `json:"clipped"`
	Reasons map[string]int   `json:"reasons"`
	Entries []captions.Entry `json:"entries"`
}

// TranscribeResponse is returned for a finished upload.
type TranscribeResponse struct {
	Success           bool            `json:"success"`
	JobID             string          `json:"job_id"`
	WebVTT            string          `json:"webvtt"`
	CaptionsAvailable bool            `json:"captions_available"`
	CaptionsError     string          `json:"captions_error,omitempty"`
	Captions          []captions.Cue  `json:"captions"`
	Diagnostics       DiagnosticsView `json:"diagnostics"`
	Style             overlay.Style   `json:"style"`
	FPS               int             `json:"fps"`
	DurationInFrames  int             `json:"duration_in_frames"`
}

// CaptionsRequest carries either a text payload or timed segments.
type CaptionsRequest struct {
	WebVTT   string             `json:"webvtt"`
	Segments []captions.Segment `json:"segments"`
	// Strict overrides the configured parsing policy when set.
	Strict *bool `json:"strict"`
}

// CaptionsResponse is a normalized track.
type CaptionsResponse struct {
	CueCount    int             `json:"cue_count"`
	Duration    float64         `json:"duration"`
	Captions    []captions.Cue  `json:"captions"`
	WebVTT      string          `json:"webvtt"`
	Diagnostics DiagnosticsView `json:"diagnostics"`
}

// ResolveRequest asks which cue is active for a set of frames. Cues take
// precedence over WebVTT. Frames takes precedence over the From/To range.
type ResolveRequest struct {
	Cues   []captions.Cue `json:"cues"`
	WebVTT string         `json:"webvtt"`
	FPS    int            `json:"fps"`
	Style  string         `json:"style"`
	Frames []int          `json:"frames"`
	From   *int           `json:"from"`
	To     *int           `json:"to"`
}

// ResolveResponse lists the resolved frames in request order.
type ResolveResponse struct {
	FPS    int             `json:"fps"`
	Style  overlay.Style   `json:"style"`
	Frames []overlay.Frame `json:"frames"`
	// BuildError is set when the captions could not be built; every frame is
	// then inactive so rendering can continue without captions.
	BuildError string `json:"build_error,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Index  int    `json:"index,omitempty"`
	JobID  string `json:"job_id,omitempty"`
}

// JobListResponse wraps ledger rows, newest first.
type JobListResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}

// JobResponse wraps a single ledger row.
type JobResponse struct {
	Job *jobs.Job `json:"job"`
}

func newDiagnosticsView(d captions.Diagnostics) DiagnosticsView {
	entries := d.Entries
	if entries == nil {
		entries = []captions.Entry{}
	}
	return DiagnosticsView{
		Dropped: d.Dropped(),
		Clipped: d.Clipped(),
		Reasons: d.Summary(),
		Entries: entries,
	}
}

func cueList(track captions.Track) []captions.Cue {
	cues := track.Cues()
	if cues == nil {
		return []captions.Cue{}
	}
	return cues
}
