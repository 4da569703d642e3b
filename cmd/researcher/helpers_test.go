package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmtTokens(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{1200, "1.2k"},
		{1_000_000, "1.0M"},
		{3_400_000, "3.4M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtTokens(tt.input), "fmtTokens(%d)", tt.input)
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{100 * time.Millisecond, "0.1s"},
		{30 * time.Second, "30.0s"},
		{65 * time.Second, "1m 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtDuration(tt.input), "fmtDuration(%v)", tt.input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 3))
	assert.Equal(t, "hello world", truncate("hello\nworld", 20))
	assert.Equal(t, "éé...", truncate("éééé", 2))
	assert.Empty(t, truncate("", 5))
}

func TestRenderUserMessage(t *testing.T) {
	msg := renderUserMessage("hello")
	assert.Contains(t, msg, "You >")
	assert.Contains(t, msg, "hello")

	multi := renderUserMessage("first\nsecond")
	assert.Contains(t, multi, "first")
	assert.Contains(t, multi, "      second")
}

func TestRenderMarkdown_NoRenderer(t *testing.T) {
	prev := mdRenderer
	mdRenderer = nil
	t.Cleanup(func() { mdRenderer = prev })

	assert.Equal(t, "**bold**", renderMarkdown("**bold**"))
}

func TestRenderError(t *testing.T) {
	assert.Contains(t, renderError(errors.New("boom")), "Error: boom")
}

func TestRandomThinkingMessage(t *testing.T) {
	for range 20 {
		assert.True(t, slices.Contains(thinkingMessages, randomThinkingMessage()))
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("RESEARCHER_TEST_KEY=abc\n"), 0o600))
		t.Setenv("RESEARCHER_TEST_KEY", "")
		require.NoError(t, os.Unsetenv("RESEARCHER_TEST_KEY"))

		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "abc", os.Getenv("RESEARCHER_TEST_KEY"))
	})
}

func TestStatusBar(t *testing.T) {
	s := statusBarModel{model: "llama3-70b-8192"}
	assert.Contains(t, s.View(), "llama3-70b-8192")
	assert.NotContains(t, s.View(), "tokens")

	s.usage.InputTokens = 1200
	s.usage.OutputTokens = 30
	s.duration = 2 * time.Second
	view := s.View()
	assert.Contains(t, view, "↑1.2k")
	assert.Contains(t, view, "↓30")
	assert.Contains(t, view, "2.0s")

	s.width = 10
	assert.Contains(t, s.View(), "…")
}
