// Package ollama is a chat.Client for a local Ollama server's /api/chat
// endpoint with native tool calling.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pantrychef"
	"pantrychef/chat"
	"pantrychef/tools"
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

type Client struct {
	endpoint   string
	model      string
	httpClient pantrychef.HTTPClient
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   pantrychef.HTTPClient
	Temperature  float32
	TopP         float32
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	c := &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384,
		},
	}
	if opts.Temperature > 0 {
		c.options.Temperature = float64(opts.Temperature)
	}
	if opts.TopP > 0 {
		c.options.TopP = float64(opts.TopP)
	}
	return c, nil
}

// Tool is a tool in Ollama's native format
type Tool struct {
	Type     string     `json:"type"`
	Function ToolSchema `json:"function"`
}

type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	// other metadata omitted but available
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []Tool        `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

// Invoke sends the prompt to the Ollama API.
func (c *Client) Invoke(ctx context.Context, prompt chat.Prompt) (chat.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	reqBody := wireRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Tools:    buildTools(prompt.Tools),
		Stream:   false,
		Options:  c.options,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return chat.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return chat.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chat.Response{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return chat.Response{}, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body", string(body))
		return chat.Response{Content: string(body)}, nil
	}

	out := chat.Response{Content: wr.Message.Content}
	for i, call := range wr.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, tools.Call{
			Name:      call.Function.Name,
			Input:     call.Function.Arguments,
			ToolUseID: fmt.Sprintf("%s_%d", call.Function.Name, i),
		})
	}
	return out, nil
}

// buildMessages converts the prompt into Ollama chat messages:
// the system prompt first, then the conversation with tool roles preserved.
func buildMessages(prompt chat.Prompt) []wireMessage {
	messages := make([]wireMessage, 0, len(prompt.Messages)+1)

	if sp := strings.TrimSpace(prompt.System); sp != "" {
		messages = append(messages, wireMessage{Role: "system", Content: sp})
	}

	for _, m := range prompt.Messages {
		switch m.Role {
		case chat.RoleUser:
			messages = append(messages, wireMessage{Role: m.Role, Content: m.Content})

		case chat.RoleAssistant:
			wm := wireMessage{Role: m.Role, Content: m.Content}
			for _, call := range m.ToolCalls {
				var wc wireToolCall
				wc.Function.Name = call.Name
				wc.Function.Arguments = call.Input
				wm.ToolCalls = append(wm.ToolCalls, wc)
			}
			messages = append(messages, wm)

		case chat.RoleTool:
			if strings.TrimSpace(m.ToolName) == "" {
				slog.Warn("ollama: dropping tool message without name")
				continue
			}
			messages = append(messages, wireMessage{Role: "tool", ToolName: m.ToolName, Content: m.Content})

		default:
			slog.Warn("ollama: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, wireMessage{Role: chat.RoleUser, Content: m.Content})
		}
	}

	return messages
}

func buildTools(ts []tools.Tool) []Tool {
	out := make([]Tool, 0, len(ts))
	for _, tool := range ts {
		schema := tool.InputSchema()
		parameters := map[string]any{
			"type":       "object",
			"properties": schema.Properties,
		}
		if len(schema.Required) > 0 {
			parameters["required"] = schema.Required
		}

		out = append(out, Tool{
			Type: "function",
			Function: ToolSchema{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  parameters,
			},
		})
	}
	return out
}
