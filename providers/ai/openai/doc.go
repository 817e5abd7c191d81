// Package openai implements [ai.Provider] for OpenAI-compatible chat
// completion APIs on top of github.com/sashabaranov/go-openai.
//
// The main entry point is [New], which reads OPENAI_API_KEY and
// OPENAI_API_BASE_URL from the environment. Use [Provider.WithAPIKey],
// [Provider.WithBaseURL] and [Provider.WithModel] to override these values
// programmatically. Any host speaking the /chat/completions protocol
// (OpenAI, Azure, Ollama, OpenRouter) can be targeted through the base URL.
package openai
