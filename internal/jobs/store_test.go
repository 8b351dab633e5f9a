package jobs_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"captionsync/internal/jobs"
	"captionsync/internal/testsupport"
)

func TestOpenCreatesLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobs(t, cfg)
	if store.Path() != filepath.Join(cfg.Paths.LogDir, "jobs.db") {
		t.Fatalf("unexpected db path %s", store.Path())
	}

	job := testsupport.NewJob(t, store, "clip.mp4")
	if job.ID == "" || job.Status != jobs.StatusPending || job.SourceName != "clip.mp4" {
		t.Fatalf("unexpected job %#v", job)
	}
	if job.CreatedAt.IsZero() || job.FinishedAt != nil {
		t.Fatalf("unexpected timestamps %#v", job)
	}

	// Reopening the same database passes the schema version check.
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened := testsupport.MustOpenJobs(t, cfg)
	if _, err := reopened.Get(context.Background(), job.ID); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestJobLifecycleCompleted(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "talk.mov")

	for _, status := range []jobs.Status{jobs.StatusExtracting, jobs.StatusTranscribing, jobs.StatusBuilding} {
		if err := store.UpdateStage(ctx, job.ID, status, string(status)+" now"); err != nil {
			t.Fatalf("UpdateStage(%s): %v", status, err)
		}
	}
	mid, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mid.Status != jobs.StatusBuilding || mid.ProgressMessage != "building now" || !mid.IsProcessing() {
		t.Fatalf("unexpected mid-flight job %#v", mid)
	}

	outcome := jobs.Outcome{CueCount: 12, DroppedCount: 1, ClippedCount: 2, CaptionsAvailable: true, FPS: 30, DurationFrames: 900}
	if err := store.Complete(ctx, job.ID, outcome); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	done, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != jobs.StatusCompleted || done.CueCount != 12 || done.DroppedCount != 1 || done.ClippedCount != 2 ||
		!done.CaptionsAvailable || done.FPS != 30 || done.DurationFrames != 900 || done.FinishedAt == nil {
		t.Fatalf("unexpected completed job %#v", done)
	}

	if err := store.UpdateStage(ctx, job.ID, jobs.StatusBuilding, ""); !errors.Is(err, jobs.ErrFinished) {
		t.Fatalf("expected ErrFinished, got %v", err)
	}
	if err := store.Fail(ctx, job.ID, jobs.StatusFailed, "late"); !errors.Is(err, jobs.ErrFinished) {
		t.Fatalf("expected ErrFinished, got %v", err)
	}
}

func TestCompleteWithoutCaptions(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "")
	if job.SourceName != "upload" {
		t.Fatalf("blank source name should default, got %q", job.SourceName)
	}
	if err := store.Complete(ctx, job.ID, jobs.Outcome{Message: "malformed caption track: missing_signature"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != jobs.StatusNoCaptions || got.CaptionsAvailable || got.ErrorMessage == "" {
		t.Fatalf("unexpected job %#v", got)
	}
}

func TestFailAndValidation(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	job := testsupport.NewJob(t, store, "broken.mp4")

	if err := store.Fail(ctx, job.ID, jobs.StatusCompleted, "nope"); err == nil {
		t.Fatal("Fail should reject non-failure status")
	}
	if err := store.UpdateStage(ctx, job.ID, jobs.StatusFailed, ""); err == nil {
		t.Fatal("UpdateStage should reject terminal status")
	}
	if err := store.Fail(ctx, job.ID, jobs.StatusRejected, "no audio stream"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != jobs.StatusRejected || got.ErrorMessage != "no audio stream" {
		t.Fatalf("unexpected job %#v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateStage(ctx, "missing", jobs.StatusExtracting, ""); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListStatsAndInterrupted(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	first := testsupport.NewJob(t, store, "one.mp4")
	second := testsupport.NewJob(t, store, "two.mp4")
	testsupport.NewJob(t, store, "three.mp4")

	if err := store.Complete(ctx, first.ID, jobs.Outcome{CaptionsAvailable: true, CueCount: 1}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := store.UpdateStage(ctx, second.ID, jobs.StatusTranscribing, ""); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}

	all, err := store.List(ctx, jobs.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
	if all[0].CreatedAt.Before(all[2].CreatedAt) {
		t.Fatalf("expected newest first, got %v before %v", all[0].CreatedAt, all[2].CreatedAt)
	}
	limited, _ := store.List(ctx, jobs.ListOptions{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
	completed, _ := store.List(ctx, jobs.ListOptions{Statuses: []jobs.Status{jobs.StatusCompleted}})
	if len(completed) != 1 || completed[0].ID != first.ID {
		t.Fatalf("status filter returned %d jobs", len(completed))
	}

	affected, err := store.FailInterrupted(ctx)
	if err != nil || affected != 2 {
		t.Fatalf("FailInterrupted = %d, %v", affected, err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusFailed] != 2 || stats[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
	interrupted, _ := store.Get(ctx, second.ID)
	if interrupted.ErrorMessage != jobs.InterruptedReason {
		t.Fatalf("unexpected message %q", interrupted.ErrorMessage)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := jobs.ParseStatus(" No_Captions "); !ok || s != jobs.StatusNoCaptions {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := jobs.ParseStatus("ripping"); ok {
		t.Fatal("unknown status accepted")
	}
	if len(jobs.AllStatuses()) != 9 {
		t.Fatalf("unexpected status count %d", len(jobs.AllStatuses()))
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobs(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.JobsDBPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = db.Close()

	if _, err := jobs.Open(cfg); !errors.Is(err, jobs.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
