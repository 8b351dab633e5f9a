package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(nopHandler); !ok {
		t.Fatal("expected nop handler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRoutesByLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newTeeHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee enabled for debug when one handler accepts it")
	}

	logger := slog.New(h)
	logger.Debug("cue dropped")
	if infoBuf.Len() != 0 {
		t.Fatalf("info handler received debug record: %s", infoBuf.String())
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler missed debug record")
	}

	logger.Info("track built", slog.Int("cues", 3))
	if !strings.Contains(infoBuf.String(), `"cues":3`) {
		t.Fatalf("info handler missing attr: %s", infoBuf.String())
	}
}

func TestTeeHandlerWithAttrsAndGroup(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String(FieldJobID, "abc")}).WithGroup("track"))
	logger.Info("built", slog.Int("cues", 2))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		out := buf.String()
		if !strings.Contains(out, `"job_id":"abc"`) {
			t.Fatalf("handler %d missing job_id: %s", i, out)
		}
		if !strings.Contains(out, `"track":{"cues":2}`) {
			t.Fatalf("handler %d missing group: %s", i, out)
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))
	TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil)).Info("teed")
	if baseBuf.Len() == 0 || teeBuf.Len() == 0 {
		t.Fatalf("expected both outputs, base=%q tee=%q", baseBuf.String(), teeBuf.String())
	}

	teeBuf.Reset()
	TeeLogger(nil, slog.NewJSONHandler(&teeBuf, nil)).Info("no base")
	if teeBuf.Len() == 0 {
		t.Fatal("expected output with nil base")
	}
}

func TestNewFileHandlerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.log")
	handler, closeFn, err := NewFileHandler(path, "debug")
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}
	slog.New(handler).Debug("segment decoded", slog.Int("index", 4))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"segment decoded"`) || !strings.Contains(out, `"level":"debug"`) {
		t.Fatalf("unexpected file output: %s", out)
	}
}
