package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"captionsync/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
	// SessionID, when set, is stamped on every record (server runs use one per process).
	SessionID string
}

// New constructs a slog logger writing to every path in OutputPaths and
// ErrorOutputPaths ("stdout", "stderr" or a file, each opened once).
// Caller locations are added at debug level or in development mode.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	paths := append(append([]string{}, opts.OutputPaths...), opts.ErrorOutputPaths...)
	if len(opts.OutputPaths) == 0 {
		paths = append([]string{"stdout"}, paths...)
	}
	writer, err := openWriters(paths)
	if err != nil {
		return nil, err
	}

	handler, err := buildHandler(opts.Format, writer, levelVar, addSource)
	if err != nil {
		return nil, err
	}
	if sessionID := strings.TrimSpace(opts.SessionID); sessionID != "" {
		handler = newSessionIDHandler(handler, sessionID)
	}
	return slog.New(handler), nil
}

func buildHandler(format string, w io.Writer, level slog.Leveler, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newPrettyHandler(w, level, addSource), nil
	case "json":
		return newJSONHandler(w, level, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

// NewFromConfig creates the server logger: the configured format on stdout
// and, when a log directory is set, JSON records appended to cfg.LogPath().
// A non-empty sessionID is stamped on every record.
func NewFromConfig(cfg *config.Config, sessionID string) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", SessionID: sessionID})
	}

	console, err := New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	handler := console.Handler()
	if cfg.Paths.LogDir != "" {
		fileHandler, _, err := NewFileHandler(cfg.LogPath(), cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("open server log: %w", err)
		}
		handler = newTeeHandler(handler, fileHandler)
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		handler = newSessionIDHandler(handler, sessionID)
	}
	return slog.New(handler), nil
}

// NewFileHandler appends JSON records at level to path. The returned func
// closes the file.
func NewFileHandler(path, level string) (slog.Handler, func() error, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	return newJSONHandler(file, parseLevel(level), false), file.Close, nil
}

// parseLevel accepts slog level names in any case; anything else is INFO.
func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openWriters(paths []string) (io.Writer, error) {
	seen := make(map[string]struct{}, len(paths))
	var writers []io.Writer
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openAppend(path)
			if err != nil {
				return nil, err
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
