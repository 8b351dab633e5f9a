// Package services holds the pieces shared by the pipeline, the HTTP server
// and the CLI: context values that carry job, stage and request identifiers
// into log records, and the error markers used to decide whether a stopped
// job is failed, rejected or canceled.
package services
