package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/researcher/pkg/tools/toolbox"
)

// ToolName is the name the model uses to request research.
const ToolName = "perform_web_research"

type researchInput struct {
	Query string `json:"query"`
}

// Tool exposes Research as the perform_web_research tool.
func (f *Fetcher) Tool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ToolName,
		Description: "Perform web research based on a query",
		Params: []toolbox.Param{
			{Name: "query", Type: "string", Description: "The search query for web research", Required: true},
		},
		Handler: f.handleResearch,
	}
}

func (f *Fetcher) handleResearch(ctx context.Context, input json.RawMessage) (string, error) {
	var in researchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("%s: invalid input: %w", ToolName, err)
	}

	data, err := json.Marshal(f.Research(ctx, in.Query))
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", ToolName, err)
	}

	return string(data), nil
}
