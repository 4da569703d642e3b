// Package toolbox holds the static registry that maps tool names to handlers.
package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/researcher/pkg/chats/content"
)

var (
	// ErrUnknownTool is returned by Call when the model names a tool that was
	// never registered. It signals a mismatch between the advertised
	// descriptors and the registry, not a recoverable tool failure.
	ErrUnknownTool = errors.New("toolbox: unknown tool")

	// ErrDuplicateTool is returned by Register when a name is already taken.
	ErrDuplicateTool = errors.New("toolbox: duplicate tool")
)

// ToolBox is a static name→tool registry. Tools are registered at startup and
// listed in registration order so descriptors reach the model in a stable
// order. A ToolBox is safe for concurrent reads once registration is done.
type ToolBox struct {
	tools map[string]Tool
	order []string
}

// New creates an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds tools to the registry. It fails on an empty name, a missing
// handler or a name that is already registered.
func (tb *ToolBox) Register(tools ...Tool) error {
	for _, t := range tools {
		if t.Name == "" {
			return errors.New("toolbox: tool name is required")
		}
		if t.Handler == nil {
			return fmt.Errorf("toolbox: tool %q: handler is required", t.Name)
		}
		if _, dup := tb.tools[t.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
	}
	return nil
}

// Get returns a tool by name.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Call runs the tool named by tc and returns its result tagged with the
// call's ID and tool name. An unknown name returns ErrUnknownTool. A handler
// error is folded into an error result so the model can react to it.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) (content.ToolResult, error) {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, tc.Name)
	}

	args := json.RawMessage(tc.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := t.Handler(ctx, args)
	if err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Content:    ErrorPayload(err),
			IsError:    true,
		}, nil
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    result,
	}, nil
}

// ErrorPayload serializes err as {"error": "..."}.
func ErrorPayload(err error) string {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	return string(data)
}
