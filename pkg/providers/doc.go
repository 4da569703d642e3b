// Package providers groups the chat-completions adapters that implement
// [github.com/germanamz/researcher/pkg/modeladapter.Completer].
//
// Sub-packages:
//   - [github.com/germanamz/researcher/pkg/providers/openai] - OpenAI Chat Completions wire format with function calling
//   - [github.com/germanamz/researcher/pkg/providers/groq] - Groq's OpenAI-compatible endpoint
package providers
