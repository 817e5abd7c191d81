package ai

import (
	"strings"

	"github.com/leofalp/taskrouter/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`              // Model name or identifier
	Messages         []Message         `json:"messages"`                     // Conversation, excluding the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`      // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`              // Tool definitions offered to the model
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`  // Optional generation configuration
	ToolChoiceForced string            `json:"tool_choice_forced,omitempty"` // "none", "auto", "required" or a tool name
}

// ToolDescription advertises a callable tool to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being answered
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that produced the content
}

type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Created      int64      `json:"created"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
	Refusal      string     `json:"refusal,omitempty"`
}

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Text returns the trimmed content, or the refusal when the model declined.
func (r *ChatResponse) Text() string {
	if r == nil {
		return ""
	}
	if content := strings.TrimSpace(r.Content); content != "" {
		return content
	}
	return strings.TrimSpace(r.Refusal)
}
