package domain

import "strings"

// Tool is the callable wrapper exposed to an external caller for one
// Operation, in the shape the Model Context Protocol expects.
type Tool struct {
	// Name is the operation id; unique within the server.
	Name string `json:"name"`

	// Description is what a model reads to decide when to call the tool.
	Description string `json:"description"`

	// InputSchema is the JSON Schema of the tool arguments.
	InputSchema JSONSchemaProps `json:"input_schema"`
}

// JSONSchemaProps represents the subset of JSON Schema used for tool inputs.
type JSONSchemaProps struct {
	Type        string                     `json:"type,omitempty"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]JSONSchemaProps `json:"properties,omitempty"`
	Required    []string                   `json:"required,omitempty"`
	Items       *JSONSchemaProps           `json:"items,omitempty"`
	Format      string                     `json:"format,omitempty"`
	Enum        []interface{}              `json:"enum,omitempty"`
}

// ToolFromOperation derives the tool definition of an operation.
func ToolFromOperation(op Operation) Tool {
	props := make(map[string]JSONSchemaProps, len(op.Parameters))
	for _, p := range op.Parameters {
		prop := JSONSchemaProps{
			Type:        string(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Type == TypeArray {
			prop.Items = &JSONSchemaProps{Type: string(p.ItemType)}
		}
		props[p.Name] = prop
	}
	return Tool{
		Name:        op.ID,
		Description: toolDescription(op),
		InputSchema: JSONSchemaProps{
			Type:       "object",
			Properties: props,
			Required:   op.RequiredParams(),
		},
	}
}

func toolDescription(op Operation) string {
	parts := make([]string, 0, 2)
	if op.Summary != "" {
		parts = append(parts, op.Summary)
	}
	if op.Description != "" && op.Description != op.Summary {
		parts = append(parts, op.Description)
	}
	if len(parts) == 0 {
		return op.Method + " " + op.PathTemplate
	}
	return strings.Join(parts, "\n\n")
}

// ToolListing is one line of the generated tool listing.
type ToolListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Tags        []string `json:"tags,omitempty"`
}

// ListingFromOperation returns the listing entry of an operation.
func ListingFromOperation(op Operation) ToolListing {
	desc := op.Summary
	if desc == "" {
		desc = op.Method + " " + op.PathTemplate
	}
	return ToolListing{
		Name:        op.ID,
		Description: desc,
		Method:      op.Method,
		Path:        op.PathTemplate,
		Tags:        op.Tags,
	}
}
