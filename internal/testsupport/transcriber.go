package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// FakeTranscriber stands in for ffmpeg and whisper.cpp. ExtractAudio writes a
// placeholder WAV so cleanup paths see real files.
type FakeTranscriber struct {
	Payload       string
	ExtractErr    error
	TranscribeErr error
	// Block, when set, holds Transcribe until it is closed or ctx ends.
	Block chan struct{}
	// OnTranscribe runs when Transcribe is entered.
	OnTranscribe func()

	mu      sync.Mutex
	videos  []string
	workDir string
}

// ExtractAudio records the video and writes a stub audio file.
func (f *FakeTranscriber) ExtractAudio(_ context.Context, video, dest string) error {
	f.mu.Lock()
	f.videos = append(f.videos, video)
	f.workDir = filepath.Dir(dest)
	f.mu.Unlock()
	if f.ExtractErr != nil {
		return f.ExtractErr
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

// Transcribe returns Payload after optionally blocking on Block.
func (f *FakeTranscriber) Transcribe(ctx context.Context, _ string, _ string) (string, error) {
	if f.OnTranscribe != nil {
		f.OnTranscribe()
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.TranscribeErr != nil {
		return "", f.TranscribeErr
	}
	return f.Payload, nil
}

// Videos returns the video paths passed to ExtractAudio.
func (f *FakeTranscriber) Videos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.videos...)
}

// LastWorkDir returns the directory of the most recent audio destination.
func (f *FakeTranscriber) LastWorkDir() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workDir
}
