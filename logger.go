package pantrychef

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConversationLogger records one entry per chat turn.
type ConversationLogger interface {
	LogTurn(turn TurnLog) error
}

// NewConversationLogFilePath returns a file path based on a cleaned up model name or id to make easier to identify specific logs produced with various models.
func NewConversationLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// TurnLog is a single user message and everything it caused.
type TurnLog struct {
	Turn         int            `json:"turn"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       string         `json:"user_id,omitempty"`
	UserText     string         `json:"user_text"`
	Iterations   []IterationLog `json:"iterations,omitempty"`
	Reply        string         `json:"reply,omitempty"`
	Action       any            `json:"action,omitempty"`
	Outcome      string         `json:"outcome,omitempty"`
	Confirmation string         `json:"confirmation,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// IterationLog is one model call within a turn
type IterationLog struct {
	Iteration int           `json:"iteration"`
	Timestamp time.Time     `json:"timestamp"`
	LLMInput  string        `json:"llm_input,omitempty"`
	LLMOutput any           `json:"llm_output"`
	ToolCalls []ToolCallLog `json:"tool_calls,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ToolCallLog represents a tool execution within an iteration
type ToolCallLog struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// FileConversationLogger accumulates turns and writes them on Flush
type FileConversationLogger struct {
	mu     sync.Mutex
	turns  []TurnLog
	writer io.Writer
}

func NewFileConversationLogger(writer io.Writer) *FileConversationLogger {
	return &FileConversationLogger{
		turns:  make([]TurnLog, 0),
		writer: writer,
	}
}

// LogTurn buffers the turn (does not flush immediately)
func (l *FileConversationLogger) LogTurn(turn TurnLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
	return nil
}

// Flush writes all buffered turns to the writer
func (l *FileConversationLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"conversation": map[string]any{
			"timestamp": time.Now(),
			"turns":     l.turns,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write conversation log: %w", err)
	}

	// Clear the buffer after successful write
	l.turns = l.turns[:0]
	return nil
}

// NoOpConversationLogger discards all turns
type NoOpConversationLogger struct{}

func NewNoOpConversationLogger() *NoOpConversationLogger {
	return &NoOpConversationLogger{}
}

func (nop *NoOpConversationLogger) LogTurn(turn TurnLog) error {
	return nil
}

// StdoutConversationLogger writes each turn as a JSON line (for Lambda/CloudWatch)
type StdoutConversationLogger struct {
	out io.Writer
}

func NewStdoutConversationLogger() *StdoutConversationLogger {
	return &StdoutConversationLogger{out: os.Stdout}
}

func (l *StdoutConversationLogger) LogTurn(turn TurnLog) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
