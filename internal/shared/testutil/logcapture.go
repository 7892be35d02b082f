package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log line with its attributes flattened. Group
// names prefix keys with a dot.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory and echoes
// it to t.Log. Handlers derived from it share one buffer.
type LogCapture struct {
	buf    *captureBuffer
	prefix string
	attrs  map[string]any
	t      testing.TB
}

type captureBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger whose output can be inspected.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	c := &LogCapture{buf: &captureBuffer{}, attrs: map[string]any{}, t: t}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for k, v := range c.attrs {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[c.prefix+a.Key] = a.Value.Any()
		return true
	})

	c.buf.mu.Lock()
	c.buf.records = append(c.buf.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.buf.mu.Unlock()

	if c.t != nil {
		c.t.Logf("%s %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (c *LogCapture) WithAttrs(as []slog.Attr) slog.Handler {
	next := c.derive(c.prefix)
	for _, a := range as {
		next.attrs[c.prefix+a.Key] = a.Value.Any()
	}
	return next
}

func (c *LogCapture) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	return c.derive(c.prefix + name + ".")
}

func (c *LogCapture) derive(prefix string) *LogCapture {
	attrs := make(map[string]any, len(c.attrs))
	for k, v := range c.attrs {
		attrs[k] = v
	}
	return &LogCapture{buf: c.buf, prefix: prefix, attrs: attrs, t: c.t}
}

// Records returns a snapshot of everything logged so far.
func (c *LogCapture) Records() []LogRecord {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	return append([]LogRecord(nil), c.buf.records...)
}

// AtLevel returns the records logged at exactly level.
func (c *LogCapture) AtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any message contains substr.
func (c *LogCapture) ContainsMessage(substr string) bool {
	for _, r := range c.Records() {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key with value.
func (c *LogCapture) ContainsAttr(key string, value any) bool {
	for _, r := range c.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

func (c *LogCapture) Count() int {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	return len(c.buf.records)
}

func (c *LogCapture) Clear() {
	c.buf.mu.Lock()
	c.buf.records = nil
	c.buf.mu.Unlock()
}
