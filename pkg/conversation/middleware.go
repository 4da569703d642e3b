package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/researcher/pkg/chats/message"
)

// Runner executes a turn.
type Runner interface {
	Converse(ctx context.Context, history []message.Message, prompt string) (Turn, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, history []message.Message, prompt string) (Turn, error)

// Converse calls the underlying function.
func (f RunnerFunc) Converse(ctx context.Context, history []message.Message, prompt string) (Turn, error) {
	return f(ctx, history, prompt)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// Chain wraps r with mws. The first middleware is the outermost.
func Chain(r Runner, mws ...Middleware) Runner {
	for i := len(mws) - 1; i >= 0; i-- {
		r = mws[i](r)
	}
	return r
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, history []message.Message, prompt string) (turn Turn, err error) {
			defer func() {
				if r := recover(); r != nil {
					turn = Turn{}
					err = fmt.Errorf("conversation panicked: %v", r)
				}
			}()

			return next.Converse(ctx, history, prompt)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs turn start, duration, and error.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, history []message.Message, prompt string) (Turn, error) {
			log.InfoContext(ctx, "turn started", "session", name, "history", len(history))

			start := time.Now()

			turn, err := next.Converse(ctx, history, prompt)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "turn finished with error",
					"session", name,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "turn finished",
					"session", name,
					"duration", duration,
					"rounds", turn.Rounds,
				)
			}

			return turn, err
		})
	}
}
