// Package logging builds the slog loggers used by the CLI and the caption
// server.
//
// Two handlers are provided: a console handler that renders a
// "Job <id> (<stage>)" subject line with the remaining fields as a bullet
// list, and a JSON handler whose records internal/logs can read back.
// WithContext copies job, stage and request identifiers from a context onto a
// logger; WarnWithContext and ErrorWithContext attach event_type and
// error_hint fields so problems can be searched for by kind.
package logging
