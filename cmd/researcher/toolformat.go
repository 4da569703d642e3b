package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/researcher/pkg/chats/content"
	"github.com/germanamz/researcher/pkg/engine"
	"github.com/germanamz/researcher/pkg/project"
	"github.com/germanamz/researcher/pkg/research"
)

// toolFormatter produces a human-readable label from parsed tool arguments.
type toolFormatter func(str func(string) string) string

// toolFormatters maps known tool names to their human-readable formatters.
var toolFormatters = map[string]toolFormatter{
	research.ToolName: func(s func(string) string) string {
		return fmt.Sprintf("Researching %q", truncate(s("query"), 80))
	},
	project.ToolName: func(s func(string) string) string {
		return fmt.Sprintf("Saving %q", s("filename"))
	},
}

// formatToolCall returns a human-readable description of a tool invocation.
func formatToolCall(toolName, argsJSON string) string {
	var args map[string]any
	if argsJSON != "" {
		_ = json.Unmarshal([]byte(argsJSON), &args)
	}

	str := func(key string) string {
		if v, ok := args[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}

	if fn, ok := toolFormatters[toolName]; ok {
		return fn(str)
	}

	if argsJSON != "" {
		return fmt.Sprintf("Calling %s %s", toolName, truncate(argsJSON, 80))
	}
	return fmt.Sprintf("Calling %s", toolName)
}

// formatToolResult summarizes a tool result in one line. Results whose
// payload carries an "error" key are reported as failures.
func formatToolResult(tr content.ToolResult) (string, bool) {
	var payload struct {
		Error   string   `json:"error"`
		Results []string `json:"results"`
	}
	_ = json.Unmarshal([]byte(tr.Content), &payload)

	switch {
	case tr.IsError || payload.Error != "":
		msg := payload.Error
		if msg == "" {
			msg = tr.Content
		}
		return "failed: " + truncate(msg, 100), true
	case tr.Name == research.ToolName:
		return fmt.Sprintf("%d snippet(s)", len(payload.Results)), false
	default:
		return "done", false
	}
}

// formatEvent renders an engine event as one scrollback line. Events that
// have no visible representation return false.
func formatEvent(ev engine.Event) (string, bool) {
	switch ev.Kind {
	case engine.EventToolCallStart:
		tc, ok := ev.Data.(content.ToolCall)
		if !ok {
			return "", false
		}
		return toolNameStyle.Render("⚙ " + formatToolCall(tc.Name, tc.Arguments)), true

	case engine.EventToolCallEnd:
		tr, ok := ev.Data.(content.ToolResult)
		if !ok {
			return "", false
		}
		summary, failed := formatToolResult(tr)
		if failed {
			return toolErrorStyle.Render(treeCorner + summary), true
		}
		return toolResultStyle.Render(treeCorner + summary), true

	case engine.EventFileChange:
		c, ok := ev.Data.(project.Change)
		if !ok {
			return "", false
		}
		if c.Created {
			return toolResultStyle.Render(fmt.Sprintf("%screated %s", treePipe, c.Path)), true
		}
		return toolResultStyle.Render(fmt.Sprintf("%soverwrote %s %s", treePipe, c.Path, diffStat(c.Diff))), true
	}

	return "", false
}

// diffStat counts added and removed lines in a unified diff.
func diffStat(diff string) string {
	var added, removed int
	for line := range strings.SplitSeq(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return fmt.Sprintf("(+%d -%d)", added, removed)
}
