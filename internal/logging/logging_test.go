package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedHandler(buf *bytes.Buffer, level slog.Level, useColor bool) *TerminalHandler {
	h := NewTerminalHandler(buf, level, useColor)
	h.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 7_000_000, time.UTC) }
	return h
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestTerminalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(fixedHandler(&buf, slog.LevelDebug, false))
	log.Info("fragment ready", "node", "exp", "count", 2)
	log.Warn("insert failed", "err", errors.New("bad token"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^INFO \[\d\d-\d\d\|\d\d:\d\d:\d\d\.\d{3}\] fragment ready node=exp count=2$`, lines[0])
	assert.Contains(t, lines[1], `WARN [`)
	assert.Contains(t, lines[1], `err="bad token"`)
}

func TestTerminalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(fixedHandler(&buf, slog.LevelWarn, false))
	log.Debug("hidden")
	log.Info("hidden")
	log.Error("shown")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "EROR "))
}

func TestTerminalHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(fixedHandler(&buf, slog.LevelInfo, false)).
		With("session", "abc").
		WithGroup("eval").
		With("line", 3)
	log.Info("ok", slog.Group("cmd", "text", "echo hi"))
	out := buf.String()
	assert.Contains(t, out, " session=abc")
	assert.Contains(t, out, " eval.line=3")
	assert.Contains(t, out, ` eval.cmd.text="echo hi"`)
}

func TestTerminalHandlerColor(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(fixedHandler(&buf, slog.LevelInfo, true))
	log.Error("boom")
	assert.Contains(t, buf.String(), "\x1b[31mEROR\x1b[0m")
}

func TestOutputNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
	_, useColor := Output(f)
	assert.False(t, useColor)
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
