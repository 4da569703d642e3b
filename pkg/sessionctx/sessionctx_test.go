package sessionctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionID_RoundTrip(t *testing.T) {
	ctx := WithSessionID(context.Background(), "5f0c2a8e")
	assert.Equal(t, "5f0c2a8e", SessionIDFromContext(ctx))
}

func TestSessionID_Missing(t *testing.T) {
	assert.Empty(t, SessionIDFromContext(context.Background()))
}

func TestSessionID_Overwrite(t *testing.T) {
	ctx := WithSessionID(context.Background(), "a")
	ctx = WithSessionID(ctx, "b")
	assert.Equal(t, "b", SessionIDFromContext(ctx))
}
