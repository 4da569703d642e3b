package project

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/researcher/pkg/tools/toolbox"
)

type saveInput struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

// Tool exposes Save as the save_project tool.
func (s *Saver) Tool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ToolName,
		Description: "Save a project to a file",
		Params: []toolbox.Param{
			{Name: "content", Type: "string", Description: "The content of the project", Required: true},
			{Name: "filename", Type: "string", Description: "The filename to save the project", Required: true},
		},
		Handler: s.handleSave,
	}
}

func (s *Saver) handleSave(ctx context.Context, input json.RawMessage) (string, error) {
	var in saveInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("%s: invalid input: %w", ToolName, err)
	}

	data, err := json.Marshal(s.Save(ctx, in.Content, in.Filename))
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", ToolName, err)
	}

	return string(data), nil
}
