package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"captionsync/internal/config"
)

// Requirement is an external program the transcription pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Hint tells the operator how to install the program when it is missing.
	Hint     string
	Optional bool
}

// Status is the result of looking a Requirement up on PATH.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists ffmpeg, ffprobe and whisper.cpp as configured. ffprobe
// is optional: without it frame rate and duration fall back to defaults.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	t := cfg.Transcription
	return []Requirement{
		{Name: "FFmpeg", Command: t.FFmpegBinary, Description: "Extracts mono 16 kHz audio from uploads", Hint: "install ffmpeg from your package manager"},
		{Name: "FFprobe", Command: t.FFprobeBinary, Description: "Reads video frame rate and duration", Hint: "ships with ffmpeg", Optional: true},
		{Name: "whisper.cpp", Command: t.WhisperBinary, Description: "Speech-to-text producing WebVTT", Hint: "build whisper.cpp and set transcription.whisper_binary"},
	}
}

// Check resolves one requirement.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		if req.Hint != "" {
			status.Detail += "; " + req.Hint
		}
		return status
	}
	status.Path, status.Available = path, true
	return status
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
