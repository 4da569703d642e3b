package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/conversation"
	"github.com/germanamz/researcher/pkg/sessionctx"
)

// ValidationError reports input rejected before any work was done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: invalid %s: %s", e.Field, e.Reason)
}

var (
	// ErrEmptyPrompt is returned for prompts that are empty after trimming.
	ErrEmptyPrompt error = &ValidationError{Field: "prompt", Reason: "must not be empty"}

	// ErrSessionBusy is returned when a turn is already running on the session.
	ErrSessionBusy = errors.New("engine: session is busy")

	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("engine: session is closed")
)

// Completion is the outcome of one submitted prompt.
type Completion struct {
	Text string
	Err  error
}

type job struct {
	ctx    context.Context
	prompt string
	done   chan Completion
}

// Session holds the history of one conversation and runs its turns on a
// dedicated worker goroutine, one at a time.
type Session struct {
	id     string
	runner conversation.Runner
	events *EventBus

	jobs chan job
	quit chan struct{}
	done chan struct{}

	mu        sync.Mutex
	history   []message.Message
	active    bool
	closed    bool
	cancelRun context.CancelFunc
}

func newSession(id string, runner conversation.Runner, events *EventBus, history []message.Message) *Session {
	s := &Session{
		id:      id,
		runner:  runner,
		events:  events,
		history: history,
		jobs:    make(chan job, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.work()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the transcript.
func (s *Session) History() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]message.Message, len(s.history))
	copy(cp, s.history)
	return cp
}

// Busy reports whether a turn is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Submit runs one turn and returns the model's final text. On success the
// session history becomes the turn's history; on failure it is unchanged.
// Submit blocks until the turn completes or ctx is done.
func (s *Session) Submit(ctx context.Context, prompt string) (string, error) {
	ch, err := s.SubmitAsync(ctx, prompt)
	if err != nil {
		return "", err
	}

	select {
	case c := <-ch:
		return c.Text, c.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SubmitAsync queues one turn on the session worker and returns a channel
// that receives exactly one Completion. Validation and busy errors are
// returned immediately and nothing is queued.
func (s *Session) SubmitAsync(ctx context.Context, prompt string) (<-chan Completion, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}

	done := make(chan Completion, 1)
	// acquire admits one job at a time, so the buffered send never blocks.
	s.jobs <- job{ctx: ctx, prompt: prompt, done: done}

	return done, nil
}

// Close stops the worker, cancelling a running turn. Pending submissions
// complete with ErrSessionClosed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	if s.cancelRun != nil {
		s.cancelRun()
	}
	close(s.quit)
	s.mu.Unlock()

	<-s.done
}

func (s *Session) work() {
	defer close(s.done)

	for {
		select {
		case j := <-s.jobs:
			s.run(j)
		case <-s.quit:
			select {
			case j := <-s.jobs:
				j.done <- Completion{Err: ErrSessionClosed}
			default:
			}
			return
		}
	}
}

func (s *Session) run(j job) {
	ctx, cancel := context.WithCancel(sessionctx.WithSessionID(j.ctx, s.id))
	defer cancel()

	s.mu.Lock()
	s.cancelRun = cancel
	if s.closed {
		cancel()
	}
	history := s.history
	s.mu.Unlock()

	s.events.publish(EventTurnStart, s.id, j.prompt)

	turn, err := s.runner.Converse(ctx, history, j.prompt)

	s.mu.Lock()
	if err == nil {
		s.history = turn.History
	}
	s.active = false
	s.cancelRun = nil
	s.mu.Unlock()

	if err != nil {
		s.events.publish(EventError, s.id, err)
		s.events.publish(EventTurnEnd, s.id, nil)
		j.done <- Completion{Err: err}
		return
	}

	s.events.publish(EventTurnEnd, s.id, turn.Rounds)
	j.done <- Completion{Text: turn.Text}
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.active {
		return fmt.Errorf("%w: %s", ErrSessionBusy, s.id)
	}
	s.active = true
	return nil
}
