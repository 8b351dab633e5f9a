// Package preflight verifies the runtime environment before captions are
// produced: directory permissions, the whisper model file, and the
// availability of ffmpeg. Results feed the status command and the server's
// /api/status endpoint.
package preflight
