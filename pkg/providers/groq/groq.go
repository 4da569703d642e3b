// Package groq configures the OpenAI-compatible adapter for Groq's hosted
// models.
package groq

import (
	"github.com/germanamz/researcher/pkg/modeladapter"
	"github.com/germanamz/researcher/pkg/providers/openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible API root.
const DefaultBaseURL = "https://api.groq.com/openai"

// DefaultModel is the model the assistant was built around.
const DefaultModel = "llama3-70b-8192"

var _ modeladapter.Completer = (*openai.Adapter)(nil)

// New creates a chat-completions adapter pointed at Groq. An empty baseURL
// or model falls back to the defaults.
func New(baseURL, apiKey, model string, maxTokens int) *openai.Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	a := openai.New(baseURL, apiKey, model, maxTokens)
	a.Label = "groq"

	return a
}
