// Package conversation runs one user turn against a model using a fixed
// two-round tool protocol.
//
// Round one offers every registered tool. If the model answers in text the
// turn ends there. Otherwise each requested tool runs in order, one result
// per call is appended to the transcript and round two is sent with no tools
// offered, so a turn never costs more than two model requests.
package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/germanamz/researcher/pkg/chats/chat"
	"github.com/germanamz/researcher/pkg/chats/content"
	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"
	"github.com/germanamz/researcher/pkg/modeladapter"
	"github.com/germanamz/researcher/pkg/tools/toolbox"
)

// Sender names recorded on the messages a turn appends.
const (
	UserSender  = "user"
	ToolsSender = "tools"
)

// Turn is the outcome of a completed turn.
type Turn struct {
	// Text is the model's final answer.
	Text string
	// History is the full transcript after the turn, input history included.
	History []message.Message
	// Rounds is the number of model requests the turn made: 1 or 2.
	Rounds int
}

// Hooks observe tool activity. Callbacks run on the calling goroutine and
// must not block.
type Hooks struct {
	OnToolCall   func(ctx context.Context, tc content.ToolCall)
	OnToolResult func(ctx context.Context, tr content.ToolResult)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHooks installs tool activity observers.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// WithLogger sets the logger used for round traces.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// Orchestrator drives turns. It holds no per-conversation state and may be
// shared by sessions as long as the completer and tools are.
type Orchestrator struct {
	completer modeladapter.Completer
	tools     *toolbox.ToolBox
	hooks     Hooks
	log       *slog.Logger
}

var _ Runner = (*Orchestrator)(nil)

// New creates an Orchestrator that sends requests through completer and
// resolves tool calls through tools.
func New(completer modeladapter.Completer, tools *toolbox.ToolBox, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer: completer,
		tools:     tools,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Converse appends prompt to a copy of history and runs the two-round
// protocol. history itself is never modified.
//
// Model failures are returned as-is, wrapped with the round number. A call
// naming an unregistered tool aborts the turn with toolbox.ErrUnknownTool.
// Tool failures do not abort: they reach the model as error payloads.
func (o *Orchestrator) Converse(ctx context.Context, history []message.Message, prompt string) (Turn, error) {
	c := chat.New(history...)
	c.Append(message.NewText(UserSender, role.User, prompt))

	reply, err := o.complete(ctx, c, 1, o.tools.Tools())
	if err != nil {
		return Turn{}, err
	}
	c.Append(reply)

	calls := reply.ToolCalls()
	if len(calls) == 0 {
		return Turn{Text: reply.TextContent(), History: c.Messages(), Rounds: 1}, nil
	}

	for _, tc := range calls {
		tr, err := o.call(ctx, tc)
		if err != nil {
			return Turn{}, err
		}
		c.Append(message.NewToolResult(ToolsSender, tr))
	}

	final, err := o.complete(ctx, c, 2, nil)
	if err != nil {
		return Turn{}, err
	}
	c.Append(final)

	return Turn{Text: final.TextContent(), History: c.Messages(), Rounds: 2}, nil
}

func (o *Orchestrator) complete(ctx context.Context, c *chat.Chat, round int, tools []toolbox.Tool) (message.Message, error) {
	o.log.InfoContext(ctx, "model round", "round", round, "messages", c.Len(), "tools", len(tools))

	reply, err := o.completer.Complete(ctx, c, tools)
	if err != nil {
		return message.Message{}, fmt.Errorf("conversation: round %d: %w", round, err)
	}

	return reply, nil
}

func (o *Orchestrator) call(ctx context.Context, tc content.ToolCall) (content.ToolResult, error) {
	if o.hooks.OnToolCall != nil {
		o.hooks.OnToolCall(ctx, tc)
	}

	o.log.DebugContext(ctx, "tool call", "tool", tc.Name, "id", tc.ID)

	tr, err := o.tools.Call(ctx, tc)
	if err != nil {
		return content.ToolResult{}, fmt.Errorf("conversation: %w", err)
	}

	if o.hooks.OnToolResult != nil {
		o.hooks.OnToolResult(ctx, tr)
	}

	return tr, nil
}
