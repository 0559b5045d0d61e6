// Package reconcile turns raw model text into validated domain values.
package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tripweaver/tripweaver/internal/schema"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// Repair strips Markdown code fences and isolates the first balanced JSON
// object that parses. Braces in surrounding prose are skipped. When no
// candidate parses, the first one is returned so the parser can report it.
// Text without an opening brace is returned trimmed.
func Repair(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	first := ""
	for start := strings.IndexByte(s, '{'); start != -1; {
		candidate := balancedFrom(s, start)
		if json.Valid([]byte(candidate)) {
			return candidate
		}
		if first == "" {
			first = candidate
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	if first == "" {
		return s
	}
	return first
}

// balancedFrom returns the object opening at s[start], or the rest of s when
// it never closes.
func balancedFrom(s string, start int) string {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// Decode repairs raw, checks it against the contract and unmarshals it into out.
// Parse failures wrap trip.ErrMalformedResponse; shape failures wrap trip.ErrSchemaViolation.
func Decode(raw string, c schema.Contract, out any) error {
	text := Repair(raw)
	if text == "" {
		return fmt.Errorf("%w: empty response", trip.ErrMalformedResponse)
	}

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return fmt.Errorf("%w: %s", trip.ErrMalformedResponse, err.Error())
	}
	if err := Check(c, generic); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %s", trip.ErrSchemaViolation, err.Error())
	}
	return nil
}

// Check verifies a decoded JSON value against a contract.
func Check(c schema.Contract, v any) error {
	return check(c.Root, v, "$")
}

func check(f schema.Field, v any, path string) error {
	if v == nil {
		return violation(path, "is null, expected %s", f.Type)
	}

	switch f.Type {
	case schema.TypeString:
		s, ok := v.(string)
		if !ok {
			return violation(path, "expected string")
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return violation(path, "value %q not in %v", s, f.Enum)
		}
	case schema.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return violation(path, "expected boolean")
		}
	case schema.TypeNumber:
		if _, ok := v.(float64); !ok {
			return violation(path, "expected number")
		}
	case schema.TypeInteger:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return violation(path, "expected integer")
		}
	case schema.TypeArray:
		items, ok := v.([]any)
		if !ok {
			return violation(path, "expected array")
		}
		if f.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := check(*f.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case schema.TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return violation(path, "expected object")
		}
		for _, p := range f.Properties {
			child, present := obj[p.Name]
			if !present {
				if p.Required {
					return violation(path+"."+p.Name, "is required")
				}
				continue
			}
			if err := check(p, child, path+"."+p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func violation(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", trip.ErrSchemaViolation, path, fmt.Sprintf(format, args...))
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
