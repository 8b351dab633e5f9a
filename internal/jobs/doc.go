// Package jobs persists the transcription job ledger in SQLite.
//
// Each upload or local transcription run gets one row that moves through
// pending → extracting → transcribing → building and ends as completed,
// no_captions, failed, rejected, or canceled. The ledger keeps counts and
// timing metadata only; caption text and cues are never stored.
//
// The schema lives in schema.sql and is versioned with PRAGMA user_version.
// Opening a database applies any missing migrations; a database from a newer
// build is refused with ErrSchemaMismatch.
package jobs
