package jsonschema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used to describe tool parameters.
type Schema struct {
	// Type is the JSON type ("object", "string", "number", "integer", "boolean", "array")
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object schema, keyed by parameter name
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items describes array elements
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties describes map values
	AdditionalProperties any   `json:"additionalProperties,omitempty"`
	Default              any   `json:"default,omitempty"`
	Enum                 []any `json:"enum,omitempty"`
}

// Object builds an object schema from its properties and required names.
func Object(properties map[string]*Schema, required ...string) *Schema {
	if properties == nil {
		properties = map[string]*Schema{}
	}
	schema := &Schema{Type: "object", Properties: properties}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

// Property builds a primitive property schema.
func Property(typ, description string) *Schema {
	return &Schema{Type: typ, Description: description}
}

// Generate derives a schema from the Go type T.
//
// Struct fields use their `json` name; a field is required when it is not a
// pointer and has no omitempty, or when its `jsonschema` tag says "required".
// The `jsonschema` tag also accepts "description=..." and repeated "enum=...".
// Self-referencing types are cut off with a bare object schema.
func Generate[T any]() *Schema {
	return generate(reflect.TypeFor[T](), map[reflect.Type]bool{})
}

func generate(t reflect.Type, visiting map[reflect.Type]bool) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return generate(t.Elem(), visiting)
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: generate(t.Elem(), visiting)}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: generate(t.Elem(), visiting)}
	case reflect.Struct:
		if visiting[t] {
			return &Schema{Type: "object"}
		}
		visiting[t] = true
		defer delete(visiting, t)
		return generateStruct(t, visiting)
	default:
		return &Schema{Type: "object"}
	}
}

func generateStruct(t reflect.Type, visiting map[reflect.Type]bool) *Schema {
	schema := Object(nil)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldSchema := generate(field.Type, visiting)
		requiredByTag, err := applyTag(field.Type, field.Tag.Get("jsonschema"), fieldSchema)
		if err != nil {
			slog.Warn("ignoring malformed jsonschema tag", "field", name, "error", err)
		}
		schema.Properties[name] = fieldSchema

		if (field.Type.Kind() != reflect.Ptr && !omitEmpty) || requiredByTag {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	return name, slices.Contains(parts[1:], "omitempty"), false
}

// applyTag copies description and enum values from a `jsonschema` tag into
// schema and reports whether the tag marks the field as required.
// Enum values are converted to the field's kind.
func applyTag(fieldType reflect.Type, tag string, schema *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}
	required := false
	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		if !hasValue {
			if key == "required" {
				required = true
			}
			continue
		}
		switch key {
		case "description":
			schema.Description = value
		case "enum":
			v, err := convertEnum(fieldType, value)
			if err != nil {
				return required, err
			}
			schema.Enum = append(schema.Enum, v)
		}
	}
	return required, nil
}

func convertEnum(fieldType reflect.Type, value string) (any, error) {
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as integer: %w", value, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as number: %w", value, err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as boolean: %w", value, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("enum tag unsupported for field type %v", fieldType)
	}
}

// Validate checks args against an object schema: every required parameter
// must be present and non-nil, and declared primitive parameters must hold a
// compatible value. Numbers passed as numeric strings are accepted, since
// planners frequently quote them. Undeclared parameters are ignored.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil {
		return nil
	}
	for _, name := range s.Required {
		if v, ok := args[name]; !ok || v == nil {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}
	for name, value := range args {
		prop, ok := s.Properties[name]
		if !ok || prop == nil || value == nil {
			continue
		}
		if !kindMatches(prop.Type, value) {
			return fmt.Errorf("parameter %q must be of type %s, got %T", name, prop.Type, value)
		}
	}
	return nil
}

func kindMatches(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number", "integer":
		switch v := value.(type) {
		case float32, float64, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, json.Number:
			return true
		case string:
			_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return err == nil
		}
		return false
	case "array":
		k := reflect.ValueOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case "object":
		return reflect.ValueOf(value).Kind() == reflect.Map
	default:
		return true
	}
}

// JSONString renders the schema as JSON, indented when indent is true.
func (s *Schema) JSONString(indent bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(data), nil
}

// String returns the compact JSON form of the schema.
func (s *Schema) String() string {
	out, err := s.JSONString(false)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}
