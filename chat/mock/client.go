// Package mock provides a deterministic chat.Client for tests and offline runs.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"pantrychef/chat"
	"pantrychef/tools"
)

// Client replays scripted responses in order. Once the script is used up it
// falls back to a fixed routine: fetch the pantry with pantry_get, then
// report how many ingredients came back.
type Client struct {
	mu        sync.Mutex
	responses []scripted
	prompts   []chat.Prompt
}

type scripted struct {
	res chat.Response
	err error
}

func NewClient(responses ...chat.Response) *Client {
	c := &Client{}
	for _, r := range responses {
		c.responses = append(c.responses, scripted{res: r})
	}
	return c
}

// Reply queues a final text response.
func (c *Client) Reply(content string) *Client {
	return c.push(scripted{res: chat.Response{Content: content}})
}

// CallTool queues a response requesting a single tool call.
func (c *Client) CallTool(name string, input map[string]any) *Client {
	c.mu.Lock()
	id := fmt.Sprintf("call_%d", len(c.responses)+1)
	c.mu.Unlock()
	return c.push(scripted{res: chat.Response{ToolCalls: []tools.Call{{Name: name, Input: input, ToolUseID: id}}}})
}

// Fail queues an error.
func (c *Client) Fail(err error) *Client {
	return c.push(scripted{err: err})
}

func (c *Client) push(s scripted) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, s)
	return c
}

// Prompts returns every prompt the client received.
func (c *Client) Prompts() []chat.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Prompt(nil), c.prompts...)
}

func (c *Client) Invoke(ctx context.Context, prompt chat.Prompt) (chat.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	var next *scripted
	if len(c.responses) > 0 {
		next = &c.responses[0]
		c.responses = c.responses[1:]
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return chat.Response{}, err
	}
	if next != nil {
		return next.res, next.err
	}
	return fallback(prompt)
}

func fallback(prompt chat.Prompt) (chat.Response, error) {
	if len(prompt.Messages) == 0 {
		return chat.Response{}, errors.New("empty prompt")
	}

	last := prompt.Messages[len(prompt.Messages)-1]
	if last.Role != chat.RoleTool || last.ToolName != "pantry_get" {
		slog.Info("LLM_CLIENT: Returning pantry_get call")
		return chat.Response{ToolCalls: []tools.Call{{Name: "pantry_get", Input: map[string]any{}, ToolUseID: "call_pantry"}}}, nil
	}

	var out struct {
		Pantry struct {
			Ingredients []json.RawMessage `json:"ingredients"`
		} `json:"pantry"`
	}
	if err := json.Unmarshal([]byte(last.Content), &out); err != nil {
		return chat.Response{Content: "I couldn't read your pantry just now."}, nil
	}
	slog.Info("LLM_CLIENT: Returning pantry summary")
	return chat.Response{Content: fmt.Sprintf("You have %d ingredients in your pantry.", len(out.Pantry.Ingredients))}, nil
}
