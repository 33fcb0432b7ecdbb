package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestInitWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, LevelInfo)
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, LevelInfo) })

	Debug("hidden")
	Info("account stored", "uuid", "abc", "kind", "legacy")
	Error("boom")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "account stored", entries[0]["message"])
	assert.Equal(t, "abc", entries[0]["uuid"])
	assert.Equal(t, "legacy", entries[0]["kind"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")
	assert.Equal(t, "error", entries[1]["level"])
}

func TestEmit_DropsDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, LevelDebug)
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, LevelInfo) })

	Warn("odd pairs", "a", "1", "dangling")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0]["a"])
	_, ok := entries[0]["dangling"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestGetLogLevel(t *testing.T) {
	InitWithWriter(&bytes.Buffer{}, "debug")
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, LevelInfo) })
	assert.Equal(t, LevelDebug, GetLogLevel())
}
