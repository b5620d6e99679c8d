package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"github.com/jarv/justread/internal/database"
)

// DatabaseHandler is a slog.Handler that writes each record as a row in
// log_messages. Attributes are flattened to a JSON object; groups become
// dotted key prefixes.
type DatabaseHandler struct {
	queries      *database.Queries
	debugEnabled bool
	attrs        []slog.Attr
	group        string
}

func NewDatabaseHandler(queries *database.Queries, debug bool) *DatabaseHandler {
	return &DatabaseHandler{
		queries:      queries,
		debugEnabled: debug,
	}
}

func (h *DatabaseHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level > slog.LevelDebug || h.debugEnabled
}

func (h *DatabaseHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.group, a)
		return true
	})

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			fields["source_file"] = frame.File
			fields["source_line"] = frame.Line
		}
	}

	var attributes sql.NullString
	if len(fields) > 0 {
		data, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		attributes = sql.NullString{String: string(data), Valid: true}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return h.queries.CreateLogMessage(ctx, database.CreateLogMessageParams{
		Level:      r.Level.String(),
		Message:    r.Message,
		Timestamp:  sql.NullTime{Time: ts.UTC().Truncate(time.Second), Valid: true},
		Attributes: attributes,
	})
}

func (h *DatabaseHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *DatabaseHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(fields, key, ga)
		}
		return
	}
	// errors marshal to {} otherwise
	if err, ok := a.Value.Any().(error); ok {
		fields[key] = err.Error()
		return
	}
	fields[key] = a.Value.Any()
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
