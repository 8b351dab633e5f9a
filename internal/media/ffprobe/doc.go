// Package ffprobe wraps the ffprobe CLI to read container duration, stream
// counts, and video frame rate for uploaded videos.
//
// The pipeline uses the frame rate and duration to report how many frames the
// caption overlay spans. The command runner is injectable so tests never need
// a real ffprobe binary.
package ffprobe
