package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrychef/chat"
	"pantrychef/storage"
	"pantrychef/tools"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewClient(ClientOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434/api/chat", c.endpoint)
		assert.Equal(t, 0.2, c.options.Temperature)
		assert.Equal(t, 16384, c.options.NumCtx)
	})

	t.Run("overrides", func(t *testing.T) {
		c, err := NewClient(ClientOpts{BaseEndpoint: "http://x", ModelID: "qwen3", Temperature: 0.5, TopP: 0.75})
		require.NoError(t, err)
		assert.Equal(t, 0.5, c.options.Temperature)
		assert.Equal(t, 0.75, c.options.TopP)
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := NewClient(ClientOpts{BaseEndpoint: "http://x"})
		assert.Error(t, err)
	})
}

func TestClient_Invoke(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		expectedResult chat.Response
		errContains    string
	}{
		{
			name: "successful response with content",
			mockResponse: createMockResponse(200, `{
				"message": {"role": "assistant", "content": "You have milk and rice."}
			}`),
			expectedResult: chat.Response{Content: "You have milk and rice."},
		},
		{
			name: "response with tool calls",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"function": {"name": "pantry_get", "arguments": {"user_id": "u1"}}},
						{"function": {"name": "recipe_get", "arguments": {"tags": ["dinner"]}}}
					]
				}
			}`),
			expectedResult: chat.Response{ToolCalls: []tools.Call{
				{Name: "pantry_get", Input: map[string]any{"user_id": "u1"}, ToolUseID: "pantry_get_0"},
				{Name: "recipe_get", Input: map[string]any{"tags": []any{"dinner"}}, ToolUseID: "recipe_get_1"},
			}},
		},
		{
			name:           "invalid JSON is returned raw",
			mockResponse:   createMockResponse(200, `not json`),
			expectedResult: chat.Response{Content: "not json"},
		},
		{
			name:         "HTTP error status",
			mockResponse: createMockResponse(500, `{"error":"model not loaded"}`),
			errContains:  "model not loaded",
		},
		{
			name:        "transport error",
			mockError:   errors.New("connection refused"),
			errContains: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   &mockHTTPClient{response: tt.mockResponse, err: tt.mockError},
			})
			require.NoError(t, err)

			got, err := c.Invoke(context.Background(), chat.Prompt{
				Messages: []chat.Message{{Role: chat.RoleUser, Content: "what's in my pantry?"}},
			})
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, got)
		})
	}
}

func TestClient_InvokeRequest(t *testing.T) {
	var captured wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientOpts{BaseEndpoint: srv.URL, ModelID: "llama3.2", HTTPClient: srv.Client()})
	require.NoError(t, err)

	registry := tools.NewRegistry(storage.NewMemoryStore(), nil, "u1")
	_, err = c.Invoke(context.Background(), chat.Prompt{
		System: "be brief",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "pantry?"},
			{Role: chat.RoleAssistant, ToolCalls: []tools.Call{{Name: "pantry_get", Input: map[string]any{}}}},
			{Role: chat.RoleTool, ToolName: "pantry_get", Content: `{"pantry":{"ingredients":[]}}`},
			{Role: chat.RoleTool, Content: "nameless result is dropped"},
			{Role: "narrator", Content: "odd role"},
		},
		Tools: registry.GetTools(),
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", captured.Model)
	assert.False(t, captured.Stream)

	require.Len(t, captured.Messages, 5)
	assert.Equal(t, wireMessage{Role: "system", Content: "be brief"}, captured.Messages[0])
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.Len(t, captured.Messages[2].ToolCalls, 1)
	assert.Equal(t, "pantry_get", captured.Messages[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", captured.Messages[3].Role)
	assert.Equal(t, "pantry_get", captured.Messages[3].ToolName)
	assert.Equal(t, wireMessage{Role: "user", Content: "odd role"}, captured.Messages[4])

	require.Len(t, captured.Tools, 3)
	assert.Equal(t, "function", captured.Tools[0].Type)
	assert.Equal(t, "pantry_get", captured.Tools[0].Function.Name)
	assert.Equal(t, "object", captured.Tools[0].Function.Parameters["type"])
	assert.Equal(t, []any{"recipe", "servings"}, captured.Tools[2].Function.Parameters["required"])
}
