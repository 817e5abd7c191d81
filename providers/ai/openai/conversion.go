package openai

import (
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/taskrouter/internal/jsonschema"
	"github.com/leofalp/taskrouter/providers/ai"
)

func requestFromGeneric(request ai.ChatRequest) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: request.SystemPrompt,
		})
	}
	for _, msg := range request.Messages {
		messages = append(messages, messageFromGeneric(msg))
	}

	out := goopenai.ChatCompletionRequest{
		Model:    request.Model,
		Messages: messages,
	}
	if cfg := request.GenerationConfig; cfg != nil {
		out.MaxTokens = cfg.MaxTokens
		out.Temperature = cfg.Temperature
	}

	for _, t := range request.Tools {
		parameters := t.Parameters
		if parameters == nil {
			parameters = jsonschema.Object(nil)
		}
		out.Tools = append(out.Tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  parameters,
			},
		})
	}
	if len(out.Tools) > 0 && request.ToolChoiceForced != "" {
		out.ToolChoice = toolChoice(request.ToolChoiceForced)
	}
	return out
}

func toolChoice(forced string) any {
	switch forced {
	case "none", "auto", "required":
		return forced
	}
	return goopenai.ToolChoice{
		Type:     goopenai.ToolTypeFunction,
		Function: goopenai.ToolFunction{Name: forced},
	}
}

func messageFromGeneric(msg ai.Message) goopenai.ChatCompletionMessage {
	out := goopenai.ChatCompletionMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, goopenai.ToolCall{
			ID:   call.ID,
			Type: goopenai.ToolTypeFunction,
			Function: goopenai.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}

func responseToGeneric(resp goopenai.ChatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]
	out := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Created:      resp.Created,
		Content:      choice.Message.Content,
		Refusal:      choice.Message.Refusal,
		FinishReason: string(choice.FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: string(call.Type),
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}
