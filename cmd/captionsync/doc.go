// Command captionsync builds caption tracks, resolves them against video
// frames and runs the transcription server.
//
// Offline commands (build, resolve, schedule) read a WebVTT file or a
// segment document and never touch the job ledger. transcribe runs the full
// ffmpeg and whisper.cpp pipeline locally; serve starts the HTTP API.
package main
