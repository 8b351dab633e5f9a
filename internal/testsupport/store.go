package testsupport

import (
	"context"
	"testing"

	"captionsync/internal/config"
	"captionsync/internal/jobs"
)

// MustOpenJobs opens the job ledger for tests and registers cleanup.
func MustOpenJobs(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job for tests.
func NewJob(t testing.TB, store *jobs.Store, sourceName string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), sourceName, "bottom-center")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
