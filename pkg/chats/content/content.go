// Package content defines the parts a transcript message is made of.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall is a model's request to run a tool. Arguments holds the raw JSON
// payload exactly as the model produced it; it is decoded only by the tool
// that consumes it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult is the serialized output of one ToolCall. ToolCallID and Name
// correlate it with the call that produced it.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }
