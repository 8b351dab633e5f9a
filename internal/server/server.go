package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"captionsync/internal/config"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/pipeline"
)

// Runner executes one transcription job.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Server owns the HTTP listener and enforces single-instance execution.
type Server struct {
	cfg    *config.Config
	store  *jobs.Store
	runner Runner
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
	slots    chan struct{}
	active   atomic.Int64

	running  atomic.Bool
	listener net.Listener
	http     *http.Server
	done     chan struct{}
}

// Status represents server runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	JobsDBPath   string
	LockFilePath string
	ActiveJobs   int
	JobCounts    map[jobs.Status]int
}

// New constructs a server with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, runner Runner, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || runner == nil {
		return nil, errors.New("server requires config, job store, and pipeline")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	limit := cfg.Transcription.MaxConcurrentJobs
	if limit <= 0 {
		limit = 1
	}
	lockPath := cfg.LockPath()
	s := &Server{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		slots:    make(chan struct{}, limit),
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start acquires the lock, marks interrupted jobs as failed and begins
// serving. The server shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another captionsync server instance is already running")
	}

	if count, err := s.store.FailInterrupted(ctx); err != nil {
		s.logger.Warn("failed to mark interrupted jobs", logging.Error(err))
	} else if count > 0 {
		logging.WarnWithContext(s.logger, "interrupted jobs marked failed", "jobs_interrupted",
			logging.Int64("count", count),
			logging.String(logging.FieldErrorHint, "re-upload the affected videos"),
			logging.String(logging.FieldImpact, "previous uploads did not finish"),
		)
	}

	listener, err := net.Listen("tcp", strings.TrimSpace(s.cfg.Paths.APIBind))
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Int("max_concurrent_jobs", cap(s.slots)),
	)
	return nil
}

// Wait blocks until the listener stops serving.
func (s *Server) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// Stop drains in-flight requests and releases the lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("api server stopped")
}

// Close stops the server and closes the job ledger.
func (s *Server) Close() error {
	s.Stop()
	return s.store.Close()
}

// Addr returns the bound listener address, or the configured bind before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Paths.APIBind
}

// Status returns the current server status.
func (s *Server) Status(ctx context.Context) Status {
	counts, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("job stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      s.running.Load(),
		PID:          os.Getpid(),
		Address:      s.Addr(),
		JobsDBPath:   s.store.Path(),
		LockFilePath: s.lockPath,
		ActiveJobs:   int(s.active.Load()),
		JobCounts:    counts,
	}
}

// acquire reserves a transcription slot, waiting until one frees up or ctx ends.
func (s *Server) acquire(ctx context.Context) (func(), error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.active.Add(1)
	return func() {
		s.active.Add(-1)
		<-s.slots
	}, nil
}
