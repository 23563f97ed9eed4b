package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// toMap round-trips v through JSON so every tool returns the same shape of
// output regardless of the Go types it built.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return m, nil
}

// decodeField decodes input[key] into dst.
func decodeField(input map[string]any, key string, dst any) error {
	raw, ok := input[key]
	if !ok || raw == nil {
		return fmt.Errorf("missing %q", key)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("invalid %q: %w", key, err)
	}
	return nil
}
