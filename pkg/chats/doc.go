// Package chats holds the transcript model shared by the conversation
// orchestrator, the session controller and the provider adapters.
//
// Sub-packages:
//   - [github.com/germanamz/researcher/pkg/chats/role] - message roles (system, user, assistant, tool)
//   - [github.com/germanamz/researcher/pkg/chats/content] - message parts (text, tool call, tool result)
//   - [github.com/germanamz/researcher/pkg/chats/message] - a role plus ordered parts
//   - [github.com/germanamz/researcher/pkg/chats/chat] - append-only ordered transcript
//
// Nothing here talks to a model API; adapters translate these types to wire formats.
package chats
