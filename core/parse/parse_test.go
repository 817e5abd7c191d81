package parse

import (
	"strings"
	"testing"
)

func TestArguments(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"whitespace", "   ", map[string]any{}},
		{"valid JSON", `{"expression":"2 + 2"}`, map[string]any{"expression": "2 + 2"}},
		{"single quotes and trailing comma", `{'expression': '3 * 4',}`, map[string]any{"expression": "3 * 4"}},
		{"unquoted keys", `{query: "golang"}`, map[string]any{"query": "golang"}},
		{"python constants", `{"verbose": True, "limit": None}`, map[string]any{"verbose": true, "limit": nil}},
		{"schema wrapped", `{"message": {"type": "string", "value": "hi"}}`, map[string]any{"message": "hi"}},
		{"number", `{"a": 1.5}`, map[string]any{"a": 1.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := Arguments(tc.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(args) != len(tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, args)
			}
			for key, want := range tc.expected {
				if got, ok := args[key]; !ok || got != want {
					t.Errorf("key %q: expected %v, got %v", key, want, got)
				}
			}
		})
	}
}

func TestArguments_NotAnObject(t *testing.T) {
	for _, content := range []string{`[1, 2, 3]`, `"just text"`, `42`} {
		t.Run(content, func(t *testing.T) {
			_, err := Arguments(content)
			if err == nil {
				t.Fatalf("expected error for %s", content)
			}
		})
	}
}

type calcArgs struct {
	Expression string  `json:"expression"`
	Precision  int     `json:"precision,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

func TestDecode(t *testing.T) {
	out, err := Decode[calcArgs](map[string]any{"expression": "1+1", "precision": 3, "ignored": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Expression != "1+1" || out.Precision != 3 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestDecode_NilArguments(t *testing.T) {
	out, err := Decode[calcArgs](nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != (calcArgs{}) {
		t.Errorf("expected zero value, got %+v", out)
	}
}

// TestDecode_SchemaWrapped verifies that the retry path unwraps envelopes.
func TestDecode_SchemaWrapped(t *testing.T) {
	out, err := Decode[calcArgs](map[string]any{
		"expression": map[string]any{"type": "string", "value": "2*3"},
		"scale":      map[string]any{"type": "number", "value": 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Expression != "2*3" || out.Scale != 0.5 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	_, err := Decode[calcArgs](map[string]any{"precision": "many"})
	if err == nil {
		t.Fatal("expected error for mismatched type")
	}
	if !strings.Contains(err.Error(), "failed to decode arguments") {
		t.Errorf("unexpected error message: %v", err)
	}
}
