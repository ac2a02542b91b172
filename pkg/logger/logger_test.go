package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew(Config{Level: "loud"}) })
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := MustNew(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("hidden")
	log.Warn("shown", "box", "3x2x1")

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "3x2x1", entries[0]["box"])
	assert.Contains(t, entries[0], "timestamp")
}

func TestWithDoesNotLeakBetweenChildren(t *testing.T) {
	var buf bytes.Buffer
	base := MustNew(Config{Level: "info", Output: &buf}).With("service", "boxpack")

	a := base.With("layout", "a")
	b := base.With("layout", "b")
	a.Info("first")
	b.Info("second")
	base.Info("third")

	entries := lines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0]["layout"])
	assert.Equal(t, "b", entries[1]["layout"])
	assert.NotContains(t, entries[2], "layout")
	for _, e := range entries {
		assert.Equal(t, "boxpack", e["service"])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := MustNew(Config{Level: "debug", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithLayoutID(ctx, "layout-1")
	log.WithContext(ctx).Debug("packed")
	log.WithContext(context.Background()).Debug("bare")

	entries := lines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "layout-1", entries[0]["layout_id"])
	assert.NotContains(t, entries[1], "request_id")
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	log := MustNew(Config{Level: "info", Output: &buf}).Named("repo")
	log.Info("ready")

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "repo", entries[0]["logger"])
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	var buf bytes.Buffer
	SetGlobal(MustNew(Config{Level: "info", Output: &buf}))
	Info("global", "n", 1)

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(1), entries[0]["n"])
}
