package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Arguments parses a raw argument string into a map.
//
// An empty string yields an empty map. Invalid JSON is repaired with
// jsonrepair before a second attempt, and schema-wrapped values are unwrapped.
//
// Example:
//
//	args, err := parse.Arguments(`{expression: '2 + 2',}`)
//	// args["expression"] == "2 + 2"
func Arguments(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	err := json.Unmarshal([]byte(content), &args)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse arguments and failed to repair JSON: unmarshal error: %w, repair error: %v", err, repairErr)
		}
		args = nil
		if err = json.Unmarshal([]byte(repaired), &args); err != nil {
			return nil, fmt.Errorf("failed to parse repaired arguments: %w (original: %s, repaired: %s)", err, content, repaired)
		}
	}
	if args == nil {
		return nil, fmt.Errorf("arguments must be a JSON object, got %s", content)
	}

	unwrapped, ok := unwrap(args).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object, got %s", content)
	}
	return unwrapped, nil
}

// Decode converts an argument map into the typed value T by round-tripping
// through JSON. When the direct conversion fails, schema-wrapped values are
// unwrapped and the conversion is retried once.
func Decode[T any](args map[string]any) (T, error) {
	var result T
	if args == nil {
		args = map[string]any{}
	}

	data, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err = json.Unmarshal(data, &result); err == nil {
		return result, nil
	}

	retry, marshalErr := json.Marshal(unwrap(args))
	if marshalErr != nil {
		return result, fmt.Errorf("failed to decode arguments as %T: %w", result, err)
	}
	var second T
	if retryErr := json.Unmarshal(retry, &second); retryErr != nil {
		return result, fmt.Errorf("failed to decode arguments as %T: %w", result, err)
	}
	return second, nil
}

// unwrap replaces {"type": ..., "value": ...} envelopes with their value,
// recursively. Models sometimes confuse the parameter schema with the data.
func unwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return unwrap(value)
			}
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = unwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = unwrap(val)
		}
		return out
	default:
		return data
	}
}
