// Package bedrock is a chat.Client for the Amazon Bedrock Converse API with
// tool use.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithydocument "github.com/aws/smithy-go/document"

	"pantrychef/chat"
	"pantrychef/tools"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Raise when expecting longer replies.
	defaultMaxTokens = 1024

	// Low temperature and top_p keep JSON action output consistent.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

var (
	ErrMaxTokens = errors.New("model hit MaxTokens limit")
	ErrBlocked   = errors.New("model response blocked by Bedrock safety filters")
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Client struct {
	brc  bedrockRuntimeClient
	opts Options
}

func NewClient(brc bedrockRuntimeClient, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{
		brc:  brc,
		opts: opts,
	}
}

func (c *Client) Invoke(ctx context.Context, prompt chat.Prompt) (chat.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	var sys []types.SystemContentBlock
	if s := strings.TrimSpace(prompt.System); s != "" {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: s})
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.opts.ModelID),
		System:   sys,
		Messages: buildMessages(prompt.Messages),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}
	if specs := buildTools(prompt.Tools); len(specs) > 0 {
		in.ToolConfig = &types.ToolConfiguration{Tools: specs, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err, "model", c.opts.ModelID)
		return chat.Response{}, err
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit; consider increasing MaxTokens")
		return chat.Response{}, ErrMaxTokens

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return chat.Response{}, ErrBlocked
	}

	res := chat.Response{Content: textFromOutput(out), ToolCalls: toolCallsFromOutput(out)}
	if out.StopReason == types.StopReasonToolUse && len(res.ToolCalls) == 0 {
		return chat.Response{}, fmt.Errorf("stop reason %s without tool calls", out.StopReason)
	}
	return res, nil
}

// buildMessages converts the conversation into Converse messages. Tool
// results become user messages, and consecutive messages with the same
// Converse role are merged since the API requires roles to alternate.
func buildMessages(msgs []chat.Message) []types.Message {
	var out []types.Message
	push := func(role types.ConversationRole, blocks ...types.ContentBlock) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, types.Message{Role: role, Content: blocks})
	}

	for _, m := range msgs {
		switch m.Role {
		case chat.RoleAssistant:
			var blocks []types.ContentBlock
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, call := range m.ToolCalls {
				input := call.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(call.ToolUseID),
					Name:      aws.String(call.Name),
					Input:     document.NewLazyDocument(input),
				}})
			}
			push(types.ConversationRoleAssistant, blocks...)

		case chat.RoleTool:
			push(types.ConversationRoleUser, &types.ContentBlockMemberToolResult{Value: toolResult(m)})

		default:
			if strings.TrimSpace(m.Content) == "" {
				continue
			}
			push(types.ConversationRoleUser, &types.ContentBlockMemberText{Value: m.Content})
		}
	}
	return out
}

// toolResult ties a tool message to the tool use it answers. A JSON
// object payload is sent as a document, anything else as text.
func toolResult(m chat.Message) types.ToolResultBlock {
	tr := types.ToolResultBlock{
		ToolUseId: aws.String(m.ToolCallID),
		Status:    types.ToolResultStatusSuccess,
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
		tr.Content = []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}}
		return tr
	}
	if _, failed := payload["error"]; failed {
		tr.Status = types.ToolResultStatusError
	}
	tr.Content = []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(payload)}}
	return tr
}

func buildTools(ts []tools.Tool) []types.Tool {
	var out []types.Tool
	for _, t := range ts {
		spec, err := buildToolSpec(t)
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to build tool spec", "error", err)
			continue
		}
		out = append(out, &types.ToolMemberToolSpec{Value: spec})
	}
	return out
}

// buildToolSpec round-trips the schema through JSON so the document carries
// the schema's own MarshalJSON output.
func buildToolSpec(t tools.Tool) (types.ToolSpecification, error) {
	schemaJSON, err := json.Marshal(t.InputSchema())
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name(), err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name(), err)
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name()),
		Description: aws.String(t.Description()),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

func outputMessage(out *bedrockruntime.ConverseOutput) (types.Message, bool) {
	if out == nil || out.Output == nil {
		return types.Message{}, false
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return types.Message{}, false
	}
	return msg.Value, true
}

// textFromOutput joins the assistant's text blocks with newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	msg, ok := outputMessage(out)
	if !ok {
		return ""
	}
	var texts []string
	for _, cb := range msg.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n")
}

// toolCallsFromOutput extracts tool uses emitted by the assistant.
func toolCallsFromOutput(out *bedrockruntime.ConverseOutput) []tools.Call {
	msg, ok := outputMessage(out)
	if !ok {
		return nil
	}

	var calls []tools.Call
	for _, cb := range msg.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		var input map[string]any
		if tu.Value.Input == nil || tu.Value.Input.UnmarshalSmithyDocument(&input) != nil || input == nil {
			input = map[string]any{}
		}

		calls = append(calls, tools.Call{
			Name:      aws.ToString(tu.Value.Name),
			Input:     normalizeInput(input).(map[string]any),
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		})
	}
	return calls
}

// normalizeInput recursively converts document numbers to float64, the
// shape tools expect from decoded JSON, and expands object or array values
// the model sent as strings.
func normalizeInput(val any) any {
	switch v := val.(type) {
	case smithydocument.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)

	case float64:
		return v

	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)

	case int:
		return float64(v)

	case int64:
		return float64(v)

	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				return normalizeInput(decoded)
			}
		}
		return v

	case []any:
		for i := range v {
			v[i] = normalizeInput(v[i])
		}
		return v

	case map[string]any:
		for key, val := range v {
			v[key] = normalizeInput(val)
		}
		return v

	default:
		return v
	}
}
