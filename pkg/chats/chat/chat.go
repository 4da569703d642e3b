// Package chat provides the append-only transcript sent to the model each round.
package chat

import (
	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"
)

// Chat is an ordered, append-only transcript. The zero value is ready to use.
// Chat is not safe for concurrent use; the owning session worker is its only
// writer.
type Chat struct {
	messages []message.Message
}

// New creates a Chat holding a copy of msgs. Later changes to msgs are not
// visible through the Chat.
func New(msgs ...message.Message) *Chat {
	cp := make([]message.Message, len(msgs))
	copy(cp, msgs)
	return &Chat{messages: cp}
}

// Append adds messages at the end of the transcript.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c *Chat) Len() int {
	return len(c.messages)
}

// At returns the message at index. It panics if index is out of range.
func (c *Chat) At(index int) message.Message {
	return c.messages[index]
}

// Last returns the most recent message and true, or false when empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of the transcript.
func (c *Chat) Messages() []message.Message {
	cp := make([]message.Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// SystemPrompt returns the text of the first system message, or "".
func (c *Chat) SystemPrompt() string {
	for _, m := range c.messages {
		if m.Role == role.System {
			return m.TextContent()
		}
	}
	return ""
}
