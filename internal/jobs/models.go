package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusBuilding     Status = "building"
	StatusCompleted    Status = "completed"
	StatusNoCaptions   Status = "no_captions"
	StatusFailed       Status = "failed"
	StatusRejected     Status = "rejected"
	StatusCanceled     Status = "canceled"
)

// InterruptedReason is recorded on jobs that were in flight when the server stopped.
const InterruptedReason = "Interrupted by server shutdown"

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusTranscribing,
	StatusBuilding,
	StatusCompleted,
	StatusNoCaptions,
	StatusFailed,
	StatusRejected,
	StatusCanceled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusPending:      {},
	StatusExtracting:   {},
	StatusTranscribing: {},
	StatusBuilding:     {},
}

var failureStatuses = map[Status]struct{}{
	StatusFailed:   {},
	StatusRejected: {},
	StatusCanceled: {},
}

// Job is one row of the ledger.
type Job struct {
	ID                string     `json:"id"`
	SourceName        string     `json:"source_name"`
	Status            Status     `json:"status"`
	ProgressMessage   string     `json:"progress_message,omitempty"`
	Style             string     `json:"style,omitempty"`
	CueCount          int        `json:"cue_count"`
	DroppedCount      int        `json:"dropped_count"`
	ClippedCount      int        `json:"clipped_count"`
	CaptionsAvailable bool       `json:"captions_available"`
	FPS               int        `json:"fps"`
	DurationFrames    int        `json:"duration_in_frames"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// Outcome carries the counts recorded when a job finishes building captions.
type Outcome struct {
	CueCount          int
	DroppedCount      int
	ClippedCount      int
	CaptionsAvailable bool
	FPS               int
	DurationFrames    int
	// Message explains why captions are unavailable; empty on success.
	Message string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether the status is an unfinished state.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsFailureStatus reports whether the status ends a job without a result.
func IsFailureStatus(status Status) bool {
	_, ok := failureStatuses[status]
	return ok
}

// IsProcessing returns true when the job has not reached a terminal state.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// Duration returns how long the job ran, or time since creation when unfinished.
func (j Job) Duration(now time.Time) time.Duration {
	end := now
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	if end.Before(j.CreatedAt) {
		return 0
	}
	return end.Sub(j.CreatedAt)
}
