package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given JSON arguments and returns the
// serialized result. Tools report their own failures inside the returned
// payload; a non-nil error means the arguments could not be used at all.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Param describes one named argument of a tool.
type Param struct {
	Name        string
	Type        string // JSON Schema type, e.g. "string".
	Description string
	Required    bool
}

// Tool is a tool descriptor advertised to the model plus the handler that
// runs it. Descriptors are built once at startup and never modified.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type schemaObject struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// Schema renders the parameter list as a JSON Schema object.
func (t Tool) Schema() json.RawMessage {
	obj := schemaObject{
		Type:       "object",
		Properties: make(map[string]schemaProperty, len(t.Params)),
	}

	for _, p := range t.Params {
		obj.Properties[p.Name] = schemaProperty{Type: p.Type, Description: p.Description}
		if p.Required {
			obj.Required = append(obj.Required, p.Name)
		}
	}

	// Only strings and maps of strings; Marshal cannot fail.
	data, _ := json.Marshal(obj)
	return data
}
