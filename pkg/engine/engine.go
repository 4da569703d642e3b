package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/germanamz/researcher/pkg/chats/content"
	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"
	"github.com/germanamz/researcher/pkg/conversation"
	"github.com/germanamz/researcher/pkg/modeladapter"
	"github.com/germanamz/researcher/pkg/modeladapter/usage"
	"github.com/germanamz/researcher/pkg/project"
	"github.com/germanamz/researcher/pkg/research"
	"github.com/germanamz/researcher/pkg/sessionctx"
	"github.com/germanamz/researcher/pkg/tools/toolbox"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by every component.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithCompleter replaces the completer the provider config would build.
func WithCompleter(c modeladapter.Completer) Option {
	return func(e *Engine) { e.completer = c }
}

// WithLauncher replaces the Chrome launcher used for research.
func WithLauncher(l research.Launcher) Option {
	return func(e *Engine) { e.launcher = l }
}

// Engine is the composition root. It is built once at startup and owns
// everything sessions share: the completer, the tool registry, the
// orchestrator and the event bus.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	events    *EventBus
	completer modeladapter.Completer
	launcher  research.Launcher
	tools     *toolbox.ToolBox
	orch      *conversation.Orchestrator

	mu       sync.Mutex
	sessions map[string]*Session
}

// New validates cfg and assembles an Engine from it.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      slog.New(slog.DiscardHandler),
		events:   NewEventBus(),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(e)
	}

	if e.completer == nil {
		c, err := buildCompleter(cfg.Provider)
		if err != nil {
			return nil, err
		}
		e.completer = c
	}

	if e.launcher == nil {
		var chromeOpts []research.ChromeOption
		if !cfg.Research.IsHeadless() {
			chromeOpts = append(chromeOpts, research.WithHeaded())
		}
		if cfg.Research.ChromePath != "" {
			chromeOpts = append(chromeOpts, research.WithExecPath(cfg.Research.ChromePath))
		}
		e.launcher = research.NewChromeLauncher(chromeOpts...)
	}

	fetcher := research.New(e.launcher,
		research.WithSearchURL(cfg.Research.SearchURL),
		research.WithResultSelector(cfg.Research.ResultSelector),
		research.WithLogger(e.log),
	)
	saver := project.NewSaver(
		project.WithOnChange(e.onFileChange),
		project.WithLogger(e.log),
	)

	e.tools = toolbox.New()
	if err := e.tools.Register(fetcher.Tool(), saver.Tool()); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e.orch = conversation.New(e.completer, e.tools,
		conversation.WithLogger(e.log),
		conversation.WithHooks(conversation.Hooks{
			OnToolCall:   e.onToolCall,
			OnToolResult: e.onToolResult,
		}),
	)

	return e, nil
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Tools returns the tool registry advertised to the model.
func (e *Engine) Tools() *toolbox.ToolBox { return e.tools }

// Config returns the configuration the engine was built from.
func (e *Engine) Config() Config { return e.cfg }

// Usage returns the token totals reported by the endpoint so far. It is zero
// when the completer does not track usage.
func (e *Engine) Usage() usage.TokenCount {
	if r, ok := e.completer.(modeladapter.UsageReporter); ok {
		return r.UsageTracker().Total()
	}
	return usage.TokenCount{}
}

// StartSession opens a session whose history begins with one system message.
// An empty systemPrompt uses the configured one.
func (e *Engine) StartSession(systemPrompt string) *Session {
	if systemPrompt == "" {
		systemPrompt = e.cfg.SystemPrompt
	}

	id := uuid.NewString()
	runner := conversation.Chain(e.orch,
		conversation.Recovery(),
		conversation.Logger(e.log, id),
	)
	history := []message.Message{message.NewText("system", role.System, systemPrompt)}

	s := newSession(id, runner, e.events, history)

	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()

	e.log.Info("session started", "session", id)

	return s
}

// Session returns an open session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// Close closes every session and waits for their workers to stop.
func (e *Engine) Close() error {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for id, s := range e.sessions {
		sessions = append(sessions, s)
		delete(e.sessions, id)
	}
	e.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	return nil
}

func (e *Engine) onToolCall(ctx context.Context, tc content.ToolCall) {
	e.events.publish(EventToolCallStart, sessionctx.SessionIDFromContext(ctx), tc)
}

func (e *Engine) onToolResult(ctx context.Context, tr content.ToolResult) {
	e.events.publish(EventToolCallEnd, sessionctx.SessionIDFromContext(ctx), tr)
}

func (e *Engine) onFileChange(ctx context.Context, c project.Change) {
	e.events.publish(EventFileChange, sessionctx.SessionIDFromContext(ctx), c)
}
