package main

import (
	"fmt"
	"time"

	"github.com/germanamz/researcher/pkg/modeladapter/usage"
	"github.com/mattn/go-runewidth"
)

// statusBarModel shows the model name, token usage and the last turn's
// duration on one line.
type statusBarModel struct {
	model    string
	usage    usage.TokenCount
	duration time.Duration
	width    int
}

func (m statusBarModel) View() string {
	line := " " + m.model
	if total := m.usage.Total(); total > 0 {
		line += fmt.Sprintf(" · tokens: ↑%s ↓%s",
			fmtTokens(m.usage.InputTokens),
			fmtTokens(m.usage.OutputTokens),
		)
	}
	if m.duration > 0 {
		line += " · " + fmtDuration(m.duration)
	}

	if m.width > 0 {
		line = runewidth.Truncate(line, m.width, "…")
	}

	return statusStyle.Render(line)
}
