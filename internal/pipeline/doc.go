// Package pipeline runs one uploaded video through audio extraction,
// whisper transcription and caption track building, recording each stage in
// the job ledger.
//
// A track that fails to build does not fail the job. The job finishes as
// no_captions with an empty track so the video can still be rendered.
package pipeline
