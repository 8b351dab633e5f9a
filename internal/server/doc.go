// Package server runs the long-lived captionsync HTTP process.
//
// It wires configuration, the job ledger and the transcription pipeline into
// a single lifecycle with flock-based locking so only one server owns a log
// directory. Uploads run through the pipeline under a bounded semaphore;
// caption building and frame resolution endpoints are pure and unbounded.
//
// Keep request handling here. Transcription steps belong to the pipeline and
// caption semantics to the captions and overlay packages.
package server
