package pantrychef

import (
	"context"
	"net/http"

	"pantrychef/pantry"
	"pantrychef/recipe"
	"pantrychef/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier posts pantry news to a chat channel.
type Notifier interface {
	PostMessage(ctx context.Context, channel string, message string) error
	PostConfirmation(ctx context.Context, channel string, res pantry.Result) error
	PostRecipeCard(ctx context.Context, channel string, r recipe.Recipe) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}
