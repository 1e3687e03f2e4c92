package tool

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// ValidateArgs checks args against schema: required parameters must be
// present and non-null, and every declared parameter must match its type
// and enum. Undeclared arguments are ignored.
func ValidateArgs(schema *Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	return validateObject(schema, args, "")
}

func validateObject(schema *Schema, obj map[string]any, prefix string) error {
	for _, name := range schema.Required {
		if v, ok := obj[name]; !ok || v == nil {
			return &ArgumentError{Argument: prefix + name, Reason: "missing required argument"}
		}
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := schema.Properties[name]
		if !ok || obj[name] == nil {
			continue
		}
		if err := validateValue(prop, obj[name], prefix+name); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(schema *Schema, v any, name string) error {
	switch schema.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return typeError(name, schema.Type, v)
		}
		if len(schema.Enum) > 0 && !slices.Contains(schema.Enum, s) {
			return &ArgumentError{Argument: name, Reason: fmt.Sprintf("must be one of %v", schema.Enum)}
		}
	case TypeNumber:
		if _, ok := toFloat(v); !ok {
			return typeError(name, schema.Type, v)
		}
	case TypeInteger:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return typeError(name, schema.Type, v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return typeError(name, schema.Type, v)
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return typeError(name, schema.Type, v)
		}
		if schema.Items != nil {
			for i, item := range items {
				if err := validateValue(schema.Items, item, fmt.Sprintf("%s[%d]", name, i)); err != nil {
					return err
				}
			}
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return typeError(name, schema.Type, v)
		}
		if schema.Properties != nil || len(schema.Required) > 0 {
			return validateObject(schema, obj, name+".")
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeError(name string, want Type, got any) error {
	return &ArgumentError{Argument: name, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
