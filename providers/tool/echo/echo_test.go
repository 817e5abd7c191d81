package echo

import (
	"context"
	"testing"

	"github.com/leofalp/taskrouter/providers/tool"
)

func TestDummyAction(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		message string
	}{
		{"message", map[string]any{"message": "hello"}, "hello"},
		{"query fallback", map[string]any{"query": "what is up"}, "what is up"},
		{"message wins over query", map[string]any{"message": "a", "query": "b"}, "a"},
		{"empty message uses query", map[string]any{"message": "", "query": "b"}, "b"},
		{"nothing", nil, ""},
		{"non-string message", map[string]any{"message": 42}, ""},
	}

	dummy := New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := dummy.Execute(context.Background(), tc.args)
			if res.Status != tool.StatusSuccess {
				t.Fatalf("dummy action must always succeed, got %+v", res)
			}
			if res.Payload["message"] != tc.message {
				t.Errorf("expected message %q, got %v", tc.message, res.Payload["message"])
			}
			if res.Payload["result"] != Completed {
				t.Errorf("unexpected result %v", res.Payload["result"])
			}
		})
	}
}

func TestDummyAction_Spec(t *testing.T) {
	spec := New().Spec()
	if spec.Name != Name {
		t.Errorf("expected name %q, got %q", Name, spec.Name)
	}
	if len(spec.Parameters.Required) != 1 || spec.Parameters.Required[0] != "message" {
		t.Errorf("expected message to be required, got %v", spec.Parameters.Required)
	}
}
