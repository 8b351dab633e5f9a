// Package transcribe turns an uploaded video into a WebVTT payload.
//
// Audio is extracted with ffmpeg as 16 kHz mono PCM and handed to the
// whisper.cpp command-line tool, which writes a .vtt file next to the audio.
// Both commands run through an injectable runner so tests can substitute
// canned behavior without the binaries installed.
package transcribe
