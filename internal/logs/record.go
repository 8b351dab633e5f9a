package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"captionsync/internal/logging"
)

// Record is one decoded JSON log line.
type Record struct {
	Time    string
	Level   string
	Message string
	JobID   string
	Stage   string
	Fields  map[string]any
}

// ParseRecord decodes a line produced by the JSON log handler. ok is false for
// lines that are not JSON objects.
func ParseRecord(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Time:    takeString(raw, logging.KeyTime),
		Level:   takeString(raw, logging.KeyLevel),
		Message: takeString(raw, logging.KeyMessage),
		JobID:   takeString(raw, logging.FieldJobID),
		Stage:   takeString(raw, logging.FieldStage),
		Fields:  raw,
	}
	return rec, true
}

// String renders the record on one line with its remaining fields sorted.
func (r Record) String() string {
	var b strings.Builder
	if r.Time != "" {
		b.WriteString(r.Time)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(r.Level))
	if r.JobID != "" {
		fmt.Fprintf(&b, " [%s", shortID(r.JobID))
		if r.Stage != "" {
			b.WriteString("/" + r.Stage)
		}
		b.WriteByte(']')
	}
	b.WriteString(" " + r.Message)

	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, r.Fields[key])
	}
	return b.String()
}

// Filter selects records. Zero values match everything.
type Filter struct {
	JobID    string
	Stage    string
	MinLevel string
}

func (f Filter) empty() bool {
	return f.JobID == "" && f.Stage == "" && f.MinLevel == ""
}

// Match reports whether line passes the filter. Non-JSON lines only pass an
// empty filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	rec, ok := ParseRecord(line)
	if !ok {
		return false
	}
	if f.JobID != "" && !strings.HasPrefix(rec.JobID, f.JobID) {
		return false
	}
	if f.Stage != "" && !strings.EqualFold(rec.Stage, f.Stage) {
		return false
	}
	if f.MinLevel != "" && parseLevel(rec.Level) < parseLevel(f.MinLevel) {
		return false
	}
	return true
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func takeString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
