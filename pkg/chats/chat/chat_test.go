package chat

import (
	"testing"

	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestChat_ZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())

	_, ok := c.Last()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
	assert.Empty(t, c.SystemPrompt())
}

func TestChat_AppendKeepsOrder(t *testing.T) {
	c := New(message.NewText("system", role.System, "be brief"))
	c.Append(message.NewText("user", role.User, "one"))
	c.Append(
		message.NewText("model", role.Assistant, "two"),
		message.NewText("user", role.User, "three"),
	)

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, "one", c.At(1).TextContent())
	assert.Equal(t, "two", c.At(2).TextContent())
	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "three", last.TextContent())
}

func TestChat_NewCopiesInput(t *testing.T) {
	msgs := []message.Message{message.NewText("user", role.User, "original")}
	c := New(msgs...)

	msgs[0] = message.NewText("user", role.User, "mutated")

	assert.Equal(t, "original", c.At(0).TextContent())
}

func TestChat_MessagesReturnsCopy(t *testing.T) {
	c := New(message.NewText("user", role.User, "hello"))

	out := c.Messages()
	out[0] = message.NewText("user", role.User, "changed")

	assert.Equal(t, "hello", c.At(0).TextContent())
}

func TestChat_SystemPrompt(t *testing.T) {
	c := New(
		message.NewText("system", role.System, "You are a researcher."),
		message.NewText("user", role.User, "hi"),
	)

	assert.Equal(t, "You are a researcher.", c.SystemPrompt())
}

func TestChat_AtPanics(t *testing.T) {
	c := New()
	assert.Panics(t, func() { c.At(0) })
}
