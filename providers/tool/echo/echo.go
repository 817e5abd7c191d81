package echo

import (
	"context"
	"strings"

	"github.com/leofalp/taskrouter/internal/jsonschema"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// Name is the registry name of the tool.
const Name = "dummy_action"

// Completed is the fixed result text of a successful action.
const Completed = "Dummy action completed successfully"

// New returns the dummy_action tool. It reads "message", falling back to
// "query" when the message is missing or empty.
func New() tool.Tool {
	return tool.NewFunc(Name, "A dummy action that always succeeds",
		jsonschema.Object(map[string]*jsonschema.Schema{
			"message": jsonschema.Property("string", "A message to include in the response"),
			"query":   jsonschema.Property("string", "Used as the message when message is absent"),
		}, "message"),
		execute,
	)
}

func execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	message := stringArg(args, "message")
	if message == "" {
		message = stringArg(args, "query")
	}
	observability.ProviderFromContext(ctx).Debug(ctx, "Dummy action executed",
		observability.String("message", message))
	return map[string]any{
		"message": message,
		"result":  Completed,
	}, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}
