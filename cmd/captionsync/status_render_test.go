package main

import (
	"bytes"
	"strings"
	"testing"

	"captionsync/internal/deps"
	"captionsync/internal/preflight"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", false)
	want := "  FFmpeg:            [OK] /usr/bin/ffmpeg"
	if got != want {
		t.Fatalf("renderStatusLine = %q, want %q", got, want)
	}
	colored := renderStatusLine("Model", statusError, "", true)
	if !strings.HasPrefix(colored, "\x1b[31m") || !strings.HasSuffix(colored, "[ERROR]"+ansiReset) {
		t.Fatalf("unexpected coloured line %q", colored)
	}
}

func TestRenderStatusReport(t *testing.T) {
	report := statusReport{
		ConfigPath: "/etc/captionsync.toml",
		Language:   "de",
		Dependencies: []deps.Status{
			{Name: "FFmpeg", Command: "ffmpeg", Available: true, Path: "/usr/bin/ffmpeg"},
			{Name: "FFprobe", Command: "ffprobe", Optional: true, Detail: `binary "ffprobe" not found`},
		},
		Preflight: []preflight.Result{{Name: "Whisper model", Passed: false, Detail: "missing"}},
		JobCounts: map[string]int{"completed": 3, "failed": 1},
	}
	out := renderStatusReport(report, false)
	for _, want := range []string{
		"Language:          [INFO] German",
		"FFprobe:           [WARN]",
		"Whisper model:     [ERROR] missing",
		"completed:         [INFO] 3",
		"failed:            [WARN] 1",
		"Ready:             [ERROR]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestShouldColorizeRespectsNoColor(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("NO_COLOR must disable colour")
	}
}
