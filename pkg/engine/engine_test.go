package engine

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/germanamz/researcher/pkg/chats/chat"
	"github.com/germanamz/researcher/pkg/chats/content"
	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"
	"github.com/germanamz/researcher/pkg/modeladapter/usage"
	"github.com/germanamz/researcher/pkg/project"
	"github.com/germanamz/researcher/pkg/research"
	"github.com/germanamz/researcher/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

// scriptedCompleter returns replies in order and counts calls.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []message.Message
	err     error
	gate    chan struct{} // when set, Complete waits for it or ctx
	calls   int
	tools   [][]toolbox.Tool
	usage   usage.Tracker
}

func (s *scriptedCompleter) Complete(ctx context.Context, _ *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return message.Message{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	s.tools = append(s.tools, tools)
	s.usage.Add(usage.TokenCount{InputTokens: 10, OutputTokens: 2})

	if s.err != nil {
		return message.Message{}, s.err
	}
	if i >= len(s.replies) {
		return message.Message{}, errors.New("no reply scripted")
	}
	return s.replies[i], nil
}

func (s *scriptedCompleter) UsageTracker() *usage.Tracker { return &s.usage }

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type noLauncher struct{}

func (noLauncher) Launch(_ context.Context) (research.Session, error) {
	return nil, errors.New("no browser in tests")
}

func testConfig() Config {
	cfg := Config{Provider: ProviderConfig{Kind: "groq", APIKey: "gsk-test"}}
	cfg.applyDefaults()
	return cfg
}

func newTestEngine(t *testing.T, c *scriptedCompleter) *Engine {
	t.Helper()

	eng, err := New(testConfig(), WithCompleter(c), WithLauncher(noLauncher{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return eng
}

func text(s string) message.Message {
	return message.NewText("", role.Assistant, s)
}

func calls(tcs ...content.ToolCall) message.Message {
	parts := make([]content.Part, len(tcs))
	for i, tc := range tcs {
		parts[i] = tc
	}
	return message.New("", role.Assistant, parts...)
}

func collect(sub *Subscription, until EventKind) []Event {
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-sub.C:
			events = append(events, e)
			if e.Kind == until {
				return events
			}
		case <-timeout:
			return events
		}
	}
}

// --- engine tests ---

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.APIKey = ""

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required")
}

func TestNew_RegistersTools(t *testing.T) {
	eng := newTestEngine(t, &scriptedCompleter{})

	tools := eng.Tools().Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, research.ToolName, tools[0].Name)
	assert.Equal(t, project.ToolName, tools[1].Name)
}

func TestStartSession(t *testing.T) {
	eng := newTestEngine(t, &scriptedCompleter{})

	s := eng.StartSession("")
	assert.NotEmpty(t, s.ID())

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, role.System, h[0].Role)
	assert.Equal(t, DefaultSystemPrompt, h[0].TextContent())

	found, ok := eng.Session(s.ID())
	assert.True(t, ok)
	assert.Same(t, s, found)

	other := eng.StartSession("Custom prompt")
	assert.NotEqual(t, s.ID(), other.ID())
	assert.Equal(t, "Custom prompt", other.History()[0].TextContent())
}

func TestSubmit_TextReply(t *testing.T) {
	c := &scriptedCompleter{replies: []message.Message{text("Hello!"), text("Again!")}}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	out, err := s.Submit(context.Background(), "  Hi  ")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out)
	assert.Equal(t, 1, c.callCount())

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "Hi", h[1].TextContent())

	out, err = s.Submit(context.Background(), "More")
	require.NoError(t, err)
	assert.Equal(t, "Again!", out)
	assert.Len(t, s.History(), 5)

	assert.Equal(t, usage.TokenCount{InputTokens: 20, OutputTokens: 4}, eng.Usage())
}

func TestSubmit_EmptyPromptNeverReachesModel(t *testing.T) {
	c := &scriptedCompleter{replies: []message.Message{text("unused")}}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	for _, p := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), p)
		require.ErrorIs(t, err, ErrEmptyPrompt)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "prompt", ve.Field)
	}

	assert.Equal(t, 0, c.callCount())
	assert.Len(t, s.History(), 1)
	assert.False(t, s.Busy())
}

func TestSubmit_FailureKeepsHistory(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("503 from upstream")}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	_, err := s.Submit(context.Background(), "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 from upstream")
	assert.Len(t, s.History(), 1)

	// The session stays usable.
	c.mu.Lock()
	c.err = nil
	c.replies = []message.Message{text("recovered")}
	c.calls = 0
	c.mu.Unlock()

	out, err := s.Submit(context.Background(), "Hi again")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
}

func TestSubmit_ToolRoundPublishesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	args, err := json.Marshal(map[string]string{"content": "package main\n", "filename": path})
	require.NoError(t, err)

	c := &scriptedCompleter{replies: []message.Message{
		calls(content.ToolCall{ID: "call_1", Name: project.ToolName, Arguments: string(args)}),
		text("Saved."),
	}}
	eng := newTestEngine(t, c)
	sub := eng.Events().Subscribe(32)
	defer eng.Events().Unsubscribe(sub)

	s := eng.StartSession("")
	out, err := s.Submit(context.Background(), "Write a main package")
	require.NoError(t, err)
	assert.Equal(t, "Saved.", out)
	assert.Equal(t, 2, c.callCount())
	assert.Len(t, c.tools[0], 2)
	assert.Empty(t, c.tools[1])

	events := collect(sub, EventTurnEnd)
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
		assert.Equal(t, s.ID(), e.SessionID)
	}
	assert.Equal(t, []EventKind{
		EventTurnStart,
		EventToolCallStart,
		EventFileChange,
		EventToolCallEnd,
		EventTurnEnd,
	}, kinds)

	change, ok := events[2].Data.(project.Change)
	require.True(t, ok)
	assert.Equal(t, path, change.Path)
	assert.True(t, change.Created)

	assert.Equal(t, 2, events[4].Data)
}

func TestSubmit_ResearchFailureIsData(t *testing.T) {
	c := &scriptedCompleter{replies: []message.Message{
		calls(content.ToolCall{ID: "call_1", Name: research.ToolName, Arguments: `{"query":"rust ownership"}`}),
		text("Research failed, sorry."),
	}}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	out, err := s.Submit(context.Background(), "Research rust")
	require.NoError(t, err)
	assert.Equal(t, "Research failed, sorry.", out)

	h := s.History()
	require.Len(t, h, 5)
	tr := h[3].ToolResults()[0]
	assert.JSONEq(t, `{"error":"launch browser: no browser in tests"}`, tr.Content)
}

func TestSubmit_UnknownToolFailsTurn(t *testing.T) {
	c := &scriptedCompleter{replies: []message.Message{
		calls(content.ToolCall{ID: "call_1", Name: "delete_everything", Arguments: `{}`}),
	}}
	eng := newTestEngine(t, c)
	sub := eng.Events().Subscribe(16)
	defer eng.Events().Unsubscribe(sub)

	s := eng.StartSession("")
	_, err := s.Submit(context.Background(), "Hi")
	require.ErrorIs(t, err, toolbox.ErrUnknownTool)
	assert.Len(t, s.History(), 1)

	events := collect(sub, EventTurnEnd)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, EventError, events[len(events)-2].Kind)
}

func TestSubmitAsync_BusyAndCompletion(t *testing.T) {
	c := &scriptedCompleter{
		replies: []message.Message{text("done")},
		gate:    make(chan struct{}),
	}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	ch, err := s.SubmitAsync(context.Background(), "first")
	require.NoError(t, err)
	assert.True(t, s.Busy())

	_, err = s.SubmitAsync(context.Background(), "second")
	require.ErrorIs(t, err, ErrSessionBusy)

	close(c.gate)

	select {
	case comp := <-ch:
		require.NoError(t, comp.Err)
		assert.Equal(t, "done", comp.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not complete")
	}
	assert.False(t, s.Busy())
}

func TestSession_CloseCancelsRunningTurn(t *testing.T) {
	c := &scriptedCompleter{gate: make(chan struct{})}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	ch, err := s.SubmitAsync(context.Background(), "hang")
	require.NoError(t, err)

	s.Close()

	select {
	case comp := <-ch:
		require.Error(t, comp.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the turn")
	}

	_, err = s.Submit(context.Background(), "after close")
	require.ErrorIs(t, err, ErrSessionClosed)

	// Close is idempotent.
	s.Close()
}

func TestSubmit_ContextCancelled(t *testing.T) {
	c := &scriptedCompleter{gate: make(chan struct{})}
	eng := newTestEngine(t, c)
	s := eng.StartSession("")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Submit(ctx, "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return !s.Busy() }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, s.History(), 1)
}

func TestEngine_CloseClosesSessions(t *testing.T) {
	eng, err := New(testConfig(), WithCompleter(&scriptedCompleter{}), WithLauncher(noLauncher{}))
	require.NoError(t, err)

	s := eng.StartSession("")
	require.NoError(t, eng.Close())

	_, err = s.Submit(context.Background(), "Hi")
	require.ErrorIs(t, err, ErrSessionClosed)

	_, ok := eng.Session(s.ID())
	assert.False(t, ok)
}
