// Package message provides the transcript message type.
package message

import (
	"strings"

	"github.com/germanamz/researcher/pkg/chats/content"
	"github.com/germanamz/researcher/pkg/chats/role"
)

// Message is a single transcript entry: who wrote it and what it contains.
// Sender is informational only and never sent to a model.
type Message struct {
	Sender string
	Role   role.Role
	Parts  []content.Part
}

// New creates a message with the given parts.
func New(sender string, r role.Role, parts ...content.Part) Message {
	return Message{
		Sender: sender,
		Role:   r,
		Parts:  parts,
	}
}

// NewText creates a message holding a single text part.
func NewText(sender string, r role.Role, text string) Message {
	return New(sender, r, content.Text{Text: text})
}

// NewToolResult creates a tool-role message carrying one tool result.
func NewToolResult(sender string, tr content.ToolResult) Message {
	return New(sender, role.Tool, tr)
}

// TextContent concatenates all text parts.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(content.Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool calls in the order the model emitted them.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResults returns the tool results carried by the message.
func (m Message) ToolResults() []content.ToolResult {
	var results []content.ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(content.ToolResult); ok {
			results = append(results, tr)
		}
	}
	return results
}
