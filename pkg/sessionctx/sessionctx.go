// Package sessionctx carries the session identity through contexts so tool
// callbacks deep in a turn can tag what they report. It has no dependencies,
// so any package can import it without creating cycles.
package sessionctx

import "context"

type sessionIDCtxKey struct{}

// WithSessionID returns a new context carrying the given session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}

// SessionIDFromContext extracts the session ID from the context.
// Returns "" if no session ID is present.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDCtxKey{}).(string)
	return v
}
