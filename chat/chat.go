// Package chat runs a pantry conversation: each user message goes to a
// model, any tool calls are answered from the tool registry, and an action
// embedded in the final reply is applied to the pantry.
package chat

import (
	"context"

	"pantrychef/tools"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a conversation. Assistant messages that request
// tools carry ToolCalls; the matching tool results use RoleTool with the
// call's ToolName and ToolCallID.
type Message struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolName   string       `json:"tool_name,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
	ToolCalls  []tools.Call `json:"tool_calls,omitempty"`
}

// Prompt is everything a backend needs for one model call.
type Prompt struct {
	System   string       `json:"system"`
	Messages []Message    `json:"messages"`
	Tools    []tools.Tool `json:"-"`
}

// Response is the model's answer: final text, tool calls, or both.
type Response struct {
	Content   string       `json:"content,omitempty"`
	ToolCalls []tools.Call `json:"tool_calls,omitempty"`
}

// Client is a chat model backend.
type Client interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}
