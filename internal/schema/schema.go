// Package schema declares the response contracts the model must satisfy.
//
// Contracts are data: they describe field names, primitive types and which
// fields are required. They are rendered into prompts as JSON Schema and are
// consulted by the reconciler when gating parsed output.
package schema

import (
	"encoding/json"
)

// Type is a JSON primitive or container type.
type Type string

const (
	TypeString  Type = "string"
	TypeBoolean Type = "boolean"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Field describes one node of a contract.
type Field struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	Enum        []string

	// Items describes array elements. Only set for TypeArray.
	Items *Field

	// Properties lists object members. Only set for TypeObject.
	Properties []Field
}

// Contract is a named response shape.
type Contract struct {
	Name string
	Root Field
}

// JSONSchema renders the contract as a JSON Schema document.
func (c Contract) JSONSchema() map[string]any {
	return render(c.Root)
}

// String renders the contract as indented JSON Schema text for prompts.
func (c Contract) String() string {
	b, err := json.MarshalIndent(c.JSONSchema(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func render(f Field) map[string]any {
	out := map[string]any{"type": string(f.Type)}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		out["enum"] = f.Enum
	}
	switch f.Type {
	case TypeArray:
		if f.Items != nil {
			out["items"] = render(*f.Items)
		}
	case TypeObject:
		props := make(map[string]any, len(f.Properties))
		var required []string
		for _, p := range f.Properties {
			props[p.Name] = render(p)
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
	}
	return out
}

func str(name, desc string) Field {
	return Field{Name: name, Type: TypeString, Description: desc, Required: true}
}

func integer(name, desc string) Field {
	return Field{Name: name, Type: TypeInteger, Description: desc, Required: true}
}

func number(name, desc string) Field {
	return Field{Name: name, Type: TypeNumber, Description: desc, Required: true}
}

func object(name, desc string, props ...Field) Field {
	return Field{Name: name, Type: TypeObject, Description: desc, Required: true, Properties: props}
}

func arrayOf(name, desc string, item Field) Field {
	return Field{Name: name, Type: TypeArray, Description: desc, Required: true, Items: &item}
}

func stringList(name, desc string) Field {
	return arrayOf(name, desc, Field{Type: TypeString, Required: true})
}
