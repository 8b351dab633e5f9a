// Package logs reads the JSON log written by the caption server.
//
// Tail returns the most recent records (optionally filtered by job, stage or
// level) plus a byte offset, and can poll from that offset for new lines.
// ParseRecord decodes one line for display.
package logs
