package ai

import (
	"encoding/json"
	"testing"
)

func TestChatResponse_Text(t *testing.T) {
	tests := []struct {
		name     string
		response *ChatResponse
		want     string
	}{
		{"nil", nil, ""},
		{"content", &ChatResponse{Content: "  hello \n"}, "hello"},
		{"refusal", &ChatResponse{Refusal: "I can't help with that"}, "I can't help with that"},
		{"content wins", &ChatResponse{Content: "answer", Refusal: "no"}, "answer"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.response.Text(); got != tc.want {
				t.Errorf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessage_OmitsEmptyToolFields(t *testing.T) {
	data, err := json.Marshal(Message{Role: RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"role":"user","content":"hi"}` {
		t.Errorf("unexpected encoding %s", data)
	}
}
