package llm

import (
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

// SchemaType is a JSON Schema primitive type.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Schema is the provider-neutral response schema attached to a GenerateRequest.
type Schema struct {
	Type        SchemaType
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	// Order lists property names in the order they should be emitted.
	// Properties missing from Order follow in map order.
	Order    []string
	Required []string
}

// String is a shorthand for a string property.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Number is a shorthand for a number property.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// ArrayOf is a shorthand for an array with the given item schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

func (s *Schema) propertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.Order {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	for name := range s.Properties {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// ToGenai converts the schema to the Gemini SDK representation.
func (s *Schema) ToGenai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       s.Items.ToGenai(),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.ToGenai()
		}
		out.PropertyOrdering = s.propertyNames()
	}
	return out
}

func genaiType(t SchemaType) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// JSONSchema returns the schema as a JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// MarshalJSON encodes the schema as JSON Schema so it can be handed to SDKs
// that accept a json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONSchema())
}

// PromptInstruction renders the schema as an instruction appended to the
// prompt, for requests where the provider cannot enforce it natively.
func (s *Schema) PromptInstruction() string {
	if s == nil {
		return ""
	}
	doc, err := json.MarshalIndent(s.JSONSchema(), "", "  ")
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nRespond with JSON only, no prose and no markdown. ")
	if s.Type == TypeArray {
		b.WriteString("The top-level value must be a JSON array. ")
	} else {
		b.WriteString("The top-level value must be a JSON object. ")
	}
	b.WriteString("It must match this JSON Schema:\n")
	b.Write(doc)
	return b.String()
}
