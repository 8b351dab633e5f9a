package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"captionsync/internal/config"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/media/ffprobe"
	"captionsync/internal/pipeline"
	"captionsync/internal/services"
	"captionsync/internal/testsupport"
)

const sampleVTT = "WEBVTT\n\n00:00:01.000 --> 00:00:03.000\nhi\n\n00:00:05.000 --> 00:00:07.000\nthere\n"

type runnerStub struct {
	result pipeline.Result
	err    error
	reqs   []pipeline.Request
}

func (r *runnerStub) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	r.reqs = append(r.reqs, req)
	return r.result, r.err
}

func noProbe(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{}, errors.New("ffprobe unavailable")
}

func newTestServer(t *testing.T, runner Runner, opts ...testsupport.ConfigOption) (*Server, *config.Config, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenJobs(t, cfg)
	if runner == nil {
		runner = &runnerStub{}
	}
	srv, err := New(cfg, store, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, cfg, store
}

func newPipelineServer(t *testing.T, fake *testsupport.FakeTranscriber) (*Server, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobs(t, cfg)
	pipe := pipeline.New(cfg, store, logging.NewNop(),
		pipeline.WithTranscriber(fake),
		pipeline.WithProber(noProbe),
	)
	srv, err := New(cfg, store, pipe, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, store
}

func uploadRequest(t *testing.T, field, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(bytes.Repeat([]byte{0x42}, 4096))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRootReportsRunning(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["message"] != "server is running" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestStatusReportsDependencies(t *testing.T) {
	srv, cfg, store := newTestServer(t, nil, testsupport.WithStubbedBinaries(), testsupport.WithModelFile())
	testsupport.NewJob(t, store, "clip.mp4")

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[StatusResponse](t, w)
	if resp.JobsDBPath != cfg.JobsDBPath() || resp.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected paths %+v", resp)
	}
	if resp.JobCounts[string(jobs.StatusPending)] != 1 {
		t.Fatalf("expected one pending job, got %v", resp.JobCounts)
	}
	if len(resp.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(resp.Dependencies))
	}
	for _, dep := range resp.Dependencies {
		if !dep.Available {
			t.Fatalf("expected stubbed %s to be available", dep.Command)
		}
	}
	if len(resp.Preflight) == 0 || resp.MaxConcurrentJobs != cfg.Transcription.MaxConcurrentJobs {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestTranscribeRequiresVideo(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "not multipart",
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", strings.NewReader("{}"))
			},
		},
		{
			name: "missing field",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", "", map[string]string{"style": "top-bar"})
			},
		},
		{
			name: "wrong field",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "clip.mp4", nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &runnerStub{}
			srv, _, _ := newTestServer(t, runner)
			w := serve(srv, tt.req(t))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if body := decode[ErrorResponse](t, w); body.Error != "No video uploaded" {
				t.Fatalf("unexpected error %q", body.Error)
			}
			if len(runner.reqs) != 0 {
				t.Fatal("pipeline should not run")
			}
		})
	}
}

func TestTranscribeRunsPipeline(t *testing.T) {
	fake := &testsupport.FakeTranscriber{Payload: sampleVTT}
	srv, store := newPipelineServer(t, fake)

	w := serve(srv, uploadRequest(t, "video", "holiday.mp4", map[string]string{"style": "top-bar"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[TranscribeResponse](t, w)
	if !resp.Success || !resp.CaptionsAvailable || resp.JobID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.WebVTT != sampleVTT || len(resp.Captions) != 2 || resp.Captions[0].Text != "hi" {
		t.Fatalf("unexpected captions %+v", resp)
	}
	if resp.Style != "top-bar" || resp.FPS != 30 || resp.DurationInFrames != 210 {
		t.Fatalf("unexpected render settings %+v", resp)
	}

	job, err := store.Get(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusCompleted || job.SourceName != "holiday.mp4" {
		t.Fatalf("unexpected job %+v", job)
	}

	videos := fake.Videos()
	if len(videos) != 1 || filepath.Ext(videos[0]) != ".mp4" {
		t.Fatalf("unexpected uploaded paths %v", videos)
	}
	if _, err := os.Stat(videos[0]); !os.IsNotExist(err) {
		t.Fatalf("expected upload to be removed, stat err %v", err)
	}
}

func TestTranscribeWithoutCuesStillSucceeds(t *testing.T) {
	fake := &testsupport.FakeTranscriber{Payload: "no cues here"}
	srv, _ := newPipelineServer(t, fake)

	w := serve(srv, uploadRequest(t, "video", "clip.webm", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[TranscribeResponse](t, w)
	if !resp.Success || resp.CaptionsAvailable || len(resp.Captions) != 0 {
		t.Fatalf("expected success without captions, got %+v", resp)
	}
	if resp.DurationInFrames != pipeline.DefaultDurationFrames {
		t.Fatalf("expected default duration, got %d", resp.DurationInFrames)
	}
}

func TestTranscribeFailureReturns502(t *testing.T) {
	fake := &testsupport.FakeTranscriber{
		TranscribeErr: services.Wrap(services.ErrExternalTool, "transcribe", "run whisper", "", errors.New("exit status 3")),
	}
	srv, store := newPipelineServer(t, fake)

	w := serve(srv, uploadRequest(t, "video", "clip.mp4", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	body := decode[ErrorResponse](t, w)
	if body.Error != "Transcription failed" || body.JobID == "" {
		t.Fatalf("unexpected body %+v", body)
	}
	job, err := store.Get(context.Background(), body.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
}

func TestTranscribeRejectsUnknownStyle(t *testing.T) {
	srv, _ := newPipelineServer(t, &testsupport.FakeTranscriber{Payload: sampleVTT})
	w := serve(srv, uploadRequest(t, "video", "clip.mp4", map[string]string{"style": "marquee"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCaptionsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	overlap := "WEBVTT\n\n00:00:00.000 --> 00:00:02.500\nA\n\n00:00:02.000 --> 00:00:04.000\nB\n"
	w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/captions", CaptionsRequest{WebVTT: overlap}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[CaptionsResponse](t, w)
	if resp.CueCount != 2 || resp.Captions[0].End != 2 || resp.Captions[1].Start != 2 {
		t.Fatalf("expected clipped overlap, got %+v", resp.Captions)
	}
	if resp.Diagnostics.Clipped != 1 || resp.Diagnostics.Reasons["overlap_clipped"] != 1 {
		t.Fatalf("unexpected diagnostics %+v", resp.Diagnostics)
	}
	if !strings.HasPrefix(resp.WebVTT, "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nA") {
		t.Fatalf("unexpected normalized webvtt %q", resp.WebVTT)
	}
}

func TestCaptionsEndpointSegments(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	body := `{"segments":[{"start":5,"end":7,"text":"there"},{"start":1,"end":3,"text":"hi"},{"start":4,"end":4,"text":"zero"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/captions", strings.NewReader(body))
	w := serve(srv, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[CaptionsResponse](t, w)
	if resp.CueCount != 2 || resp.Captions[0].Text != "hi" || resp.Duration != 7 {
		t.Fatalf("unexpected track %+v", resp)
	}
	if resp.Diagnostics.Dropped != 1 {
		t.Fatalf("expected one dropped cue, got %+v", resp.Diagnostics)
	}
}

func TestCaptionsEndpointSplitsLongSegments(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	body := `{"segments":[{"start":0,"end":8,"text":"one two three four five six seven eight nine ten eleven twelve"}]}`
	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/captions", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[CaptionsResponse](t, w)
	if resp.CueCount != 2 || resp.Captions[0].End != 4 || resp.Captions[1].Text != "seven eight nine ten eleven twelve" {
		t.Fatalf("expected two six-word cues, got %+v", resp.Captions)
	}
}

func TestCaptionsEndpointErrors(t *testing.T) {
	strict := true
	tests := []struct {
		name       string
		payload    any
		wantStatus int
		wantReason string
	}{
		{
			name:       "strict malformed timestamp",
			payload:    CaptionsRequest{WebVTT: "WEBVTT\n\n00:00:xx.000 --> 00:00:02.000\nbad\n", Strict: &strict},
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "invalid_timestamp",
		},
		{
			name:       "both payloads",
			payload:    map[string]any{"webvtt": sampleVTT, "segments": []any{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			payload:    "not an object",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newTestServer(t, nil)
			w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/captions", tt.payload))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if body := decode[ErrorResponse](t, w); body.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, body.Reason)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	cues := []map[string]any{
		{"start": 1, "end": 3, "text": "hi"},
		{"start": 5, "end": 7, "text": "there"},
	}

	w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/resolve", map[string]any{
		"cues": cues, "fps": 30, "frames": []int{180, 60, 120},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ResolveResponse](t, w)
	if len(resp.Frames) != 3 || resp.Style != "bottom-center" {
		t.Fatalf("unexpected response %+v", resp)
	}
	want := []string{"there", "hi", ""}
	for i, frame := range resp.Frames {
		got := ""
		if frame.Cue != nil {
			got = frame.Cue.Text
		}
		if got != want[i] || frame.Active != (want[i] != "") {
			t.Fatalf("frame %d: expected %q, got %+v", frame.Index, want[i], frame)
		}
	}

	w = serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/resolve", map[string]any{
		"webvtt": sampleVTT, "fps": 30, "from": 89, "to": 91, "style": "top-bar",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = decode[ResolveResponse](t, w)
	if len(resp.Frames) != 3 || !resp.Frames[1].Active || resp.Frames[2].Active {
		t.Fatalf("expected inclusive end at frame 90, got %+v", resp.Frames)
	}
}

func TestResolveEndpointMalformedTrackRendersWithoutCaptions(t *testing.T) {
	srv, _, _ := newTestServer(t, nil, testsupport.WithStrictCaptions())
	w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/resolve", map[string]any{
		"webvtt": "WEBVTT\n\n00:00:aa.000 --> 00:00:03.000\nbroken\n", "fps": 30, "frames": []int{0, 60},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ResolveResponse](t, w)
	if resp.BuildError == "" || len(resp.Frames) != 2 {
		t.Fatalf("expected build error and two frames, got %+v", resp)
	}
	for _, frame := range resp.Frames {
		if frame.Active || frame.Cue != nil {
			t.Fatalf("frame %d should have no caption: %+v", frame.Index, frame)
		}
	}
}

func TestResolveEndpointCleansSuppliedCues(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	resolveText := func(body map[string]any) string {
		t.Helper()
		w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/resolve", body))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decode[ResolveResponse](t, w)
		if len(resp.Frames) != 1 || resp.Frames[0].Cue == nil {
			t.Fatalf("expected an active frame, got %+v", resp.Frames)
		}
		return resp.Frames[0].Cue.Text
	}
	long := "<i>Tom</i> &amp; Jerry run across the whole long kitchen floor"
	fromCues := resolveText(map[string]any{
		"cues":   []map[string]any{{"start": 0, "end": 2, "text": long}},
		"fps":    30,
		"frames": []int{30},
	})
	fromVTT := resolveText(map[string]any{
		"webvtt": "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\n" + long + "\n",
		"fps":    30,
		"frames": []int{30},
	})
	if fromCues != "Tom & Jerry run across the whole long kitchen floor" || fromCues != fromVTT {
		t.Fatalf("cue text %q differs from webvtt text %q", fromCues, fromVTT)
	}
}

func TestResolveEndpointValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	for name, payload := range map[string]map[string]any{
		"zero fps":      {"webvtt": sampleVTT, "fps": 0, "frames": []int{1}},
		"no frames":     {"webvtt": sampleVTT, "fps": 30},
		"bad range":     {"webvtt": sampleVTT, "fps": 30, "from": 10, "to": 5},
		"unknown style": {"webvtt": sampleVTT, "fps": 30, "frames": []int{1}, "style": "marquee"},
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(srv, jsonRequest(t, http.MethodPost, "/api/v1/resolve", payload))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestJobsEndpoints(t *testing.T) {
	srv, _, store := newTestServer(t, nil)
	ctx := context.Background()
	first := testsupport.NewJob(t, store, "one.mp4")
	second := testsupport.NewJob(t, store, "two.mp4")
	if err := store.Fail(ctx, second.ID, jobs.StatusFailed, "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if list := decode[JobListResponse](t, w); len(list.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list.Jobs))
	}

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/jobs?status=failed", nil))
	list := decode[JobListResponse](t, w)
	if len(list.Jobs) != 1 || list.Jobs[0].ID != second.ID {
		t.Fatalf("unexpected filtered jobs %+v", list.Jobs)
	}

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/jobs/"+first.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[JobResponse](t, w); got.Job == nil || got.Job.SourceName != "one.mp4" {
		t.Fatalf("unexpected job %+v", got.Job)
	}

	for path, want := range map[string]int{
		"/api/jobs/missing":       http.StatusNotFound,
		"/api/jobs?status=bogus":  http.StatusBadRequest,
		"/api/jobs?limit=-1":      http.StatusBadRequest,
		"/api/jobs?status=failed": http.StatusOK,
	} {
		if w := serve(srv, httptest.NewRequest(http.MethodGet, path, nil)); w.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, w.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _, _ := newTestServer(t, nil, testsupport.WithAPIToken("s3cret"))

	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
		t.Fatalf("root should not require auth, got %d", w.Code)
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/jobs", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if w := serve(srv, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	if w := serve(srv, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv, cfg, _ := newTestServer(t, nil)
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transcribe", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(srv, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE" {
		t.Fatalf("unexpected allow methods %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(srv, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin must not be echoed: %d %v", w.Code, w.Header())
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	if got := serve(srv, req).Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected propagated id, got %q", got)
	}
	if got := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestAcquireBoundsConcurrency(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	limit := cap(srv.slots)

	releases := make([]func(), 0, limit)
	for range limit {
		release, err := srv.acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		releases = append(releases, release)
	}
	if got := srv.Status(context.Background()).ActiveJobs; got != limit {
		t.Fatalf("expected %d active jobs, got %d", limit, got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := srv.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected saturated semaphore to time out, got %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release, err := srv.acquire(context.Background())
		if err != nil {
			t.Errorf("acquire after release: %v", err)
			return
		}
		release()
	}()
	releases[0]()
	wg.Wait()
	for _, release := range releases[1:] {
		release()
	}
	if got := srv.active.Load(); got != 0 {
		t.Fatalf("expected no active jobs, got %d", got)
	}
}

func TestServerStartStop(t *testing.T) {
	srv, cfg, store := newTestServer(t, nil)
	job := testsupport.NewJob(t, store, "stale.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	other, err := New(cfg, store, &runnerStub{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		t.Fatal("expected lock contention error")
	}

	stale, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stale.Status != jobs.StatusFailed || stale.ErrorMessage != jobs.InterruptedReason {
		t.Fatalf("expected interrupted job to be failed, got %+v", stale)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !srv.Status(ctx).Running {
		t.Fatal("expected running status")
	}

	cancel()
	srv.Wait()
	if srv.Status(context.Background()).Running {
		t.Fatal("expected server to be stopped")
	}
}
