// Package logging provides the leveled operational logger and the
// per-run point journal.
//   - A leveled slog.Logger for stderr (sweep progress, warnings)
//   - A Journal writing one JSON line per finished grid point
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-point output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Journal appends grid point events to dir/points.jsonl. It is safe for
// concurrent use, and a nil Journal ignores every call.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// NewJournal opens the journal at debug or trace level. At info level it
// returns nil and creates nothing.
func NewJournal(dir string, level string) *Journal {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "points.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return &Journal{file: f}
}

// Log writes event as one JSON line with a "time" field added. The caller's
// map is not modified.
func (j *Journal) Log(event map[string]any) {
	if j == nil || j.file == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, _ = j.file.Write(data)
}

func (j *Journal) Close() {
	if j == nil || j.file == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.file.Close()
	j.file = nil
}
