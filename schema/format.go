package schema

import (
	"encoding/json"
	"strings"
)

// JSONSchema returns the schema as a JSON Schema object document.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.fields))
	required := make([]string, 0, len(s.fields))
	for i := range s.fields {
		f := &s.fields[i]
		p := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if f.MinLength != nil {
			p["minLength"] = *f.MinLength
		}
		if f.MaxLength != nil {
			p["maxLength"] = *f.MaxLength
		}
		if f.Minimum != nil {
			p["minimum"] = *f.Minimum
		}
		if f.Maximum != nil {
			p["maximum"] = *f.Maximum
		}
		if len(f.Enum) > 0 {
			p["enum"] = append([]string(nil), f.Enum...)
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	if s.title != "" {
		doc["title"] = s.title
	}
	return doc
}

// FormatInstructions renders the text telling a model how to shape its
// output. It is meant to be embedded in task and repair prompts.
func (s *Schema) FormatInstructions() string {
	data, err := json.Marshal(s.JSONSchema())
	if err != nil {
		// JSONSchema only holds strings, numbers and slices.
		panic(err)
	}

	var sb strings.Builder
	sb.WriteString("The output should be a single JSON object that conforms to the JSON schema below.\n")
	sb.WriteString("Return only the JSON object: no explanations, no markdown, no extra keys.\n")
	sb.WriteString("String lengths are counted in characters.\n\n")
	sb.WriteString("Here is the output schema:\n```\n")
	sb.Write(data)
	sb.WriteString("\n```")
	return sb.String()
}
