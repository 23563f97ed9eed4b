package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pantrychef"
	"pantrychef/pantry"
	"pantrychef/tools"
)

// ErrBusy is returned by Send while a previous turn is still running.
var ErrBusy = errors.New("a chat turn is already in progress")

const defaultMaxIterations = 5

// Turn is the outcome of one user message.
type Turn struct {
	// Reply is the assistant's text with any action object removed.
	Reply string
	// Action and Result are set when the reply carried a pantry action.
	Action pantry.Action
	Result *pantry.Result
}

// Confirmation is the executor's message for the turn, if any.
func (t Turn) Confirmation() string {
	if t.Result == nil {
		return ""
	}
	return t.Result.Message
}

// Text is what the user sees: the reply followed by the confirmation.
func (t Turn) Text() string {
	switch {
	case t.Reply == "":
		return t.Confirmation()
	case t.Confirmation() == "":
		return t.Reply
	}
	return t.Reply + "\n\n" + t.Confirmation()
}

type sessionMetrics struct {
	turns        metric.Int64Counter
	turnsFailed  metric.Int64Counter
	actions      metric.Int64Counter
	toolCalls    metric.Int64Counter
	responseTime metric.Float64Histogram
}

func newSessionMetrics(m metric.Meter) sessionMetrics {
	turns, _ := m.Int64Counter("chat_turns_total",
		metric.WithDescription("Total number of chat turns started"))
	turnsFailed, _ := m.Int64Counter("chat_turns_failed_total",
		metric.WithDescription("Total number of chat turns that returned an error"))
	actions, _ := m.Int64Counter("pantry_actions_total",
		metric.WithDescription("Total number of pantry actions executed, by action and outcome"))
	toolCalls, _ := m.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	responseTime, _ := m.Float64Histogram("chat_response_time_seconds",
		metric.WithDescription("Time from user message to final reply in seconds"))
	return sessionMetrics{
		turns:        turns,
		turnsFailed:  turnsFailed,
		actions:      actions,
		toolCalls:    toolCalls,
		responseTime: responseTime,
	}
}

// Session is one user's conversation. It is safe for concurrent use but runs
// a single turn at a time.
type Session struct {
	client        Client
	toolProvider  pantrychef.ToolProvider
	executor      *pantry.Executor
	maxIterations int
	logger        pantrychef.ConversationLogger
	tracer        trace.Tracer
	meter         metric.Meter
	metrics       sessionMetrics
	userID        string
	debug         bool

	mu      sync.Mutex
	busy    bool
	history []Message
	turns   int
}

type Option func(*Session)

func WithMaxIterations(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

func WithLogger(l pantrychef.ConversationLogger) Option {
	return func(s *Session) { s.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Session) { s.meter = m }
}

// WithHistory seeds the conversation, for callers that keep history
// between requests.
func WithHistory(history []Message) Option {
	return func(s *Session) { s.history = append([]Message(nil), history...) }
}

// WithUserID labels turn logs with the user.
func WithUserID(id string) Option {
	return func(s *Session) { s.userID = id }
}

// WithDebugDump dumps every parsed action to stdout.
func WithDebugDump(on bool) Option {
	return func(s *Session) { s.debug = on }
}

func NewSession(client Client, tp pantrychef.ToolProvider, executor *pantry.Executor, opts ...Option) *Session {
	s := &Session{
		client:        client,
		toolProvider:  tp,
		executor:      executor,
		maxIterations: defaultMaxIterations,
		logger:        pantrychef.NewNoOpConversationLogger(),
		tracer:        otel.Tracer(pantrychef.TracerNameChat),
		meter:         otel.Meter(pantrychef.MeterNameChat),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newSessionMetrics(s.meter)
	return s
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Send runs one turn. A model or tool-loop failure returns an error and
// leaves the history unchanged. Action failures are not errors; they are
// reported in Turn.Result.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	history, n, ok := s.begin()
	if !ok {
		return Turn{}, ErrBusy
	}
	defer s.end()

	ctx, span := s.tracer.Start(ctx, "Session.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("turn", n))

	start := time.Now()
	s.metrics.turns.Add(ctx, 1)
	defer func() {
		s.metrics.responseTime.Record(ctx, time.Since(start).Seconds())
	}()

	slog.Info("SESSION: Starting turn", "turn", n, "history_len", len(history))

	turnLog := pantrychef.TurnLog{Turn: n, Timestamp: start, UserID: s.userID, UserText: text}
	msgs := append(history, Message{Role: RoleUser, Content: text})

	content, err := s.converse(ctx, msgs, &turnLog)
	if err != nil {
		return Turn{}, s.fail(ctx, span, &turnLog, err)
	}

	turn := Turn{Reply: content}
	if action, ok := pantry.ParseAction(content); ok && s.executor != nil {
		if s.debug {
			pantrychef.Dump(action)
		}
		res, err := s.executor.Execute(ctx, action)
		if err != nil {
			return Turn{}, s.fail(ctx, span, &turnLog, fmt.Errorf("execute %s: %w", action.Type(), err))
		}

		turn.Reply = pantry.StripAction(content)
		turn.Action = action
		turn.Result = &res

		s.metrics.actions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", string(action.Type())),
			attribute.String("outcome", string(res.Outcome)),
		))
		span.SetAttributes(
			attribute.String("pantry.action", string(action.Type())),
			attribute.String("pantry.outcome", string(res.Outcome)),
		)
		turnLog.Action = action
		turnLog.Outcome = string(res.Outcome)
		turnLog.Confirmation = res.Message

		slog.Info("SESSION: Action executed", "turn", n, "action", action.Type(), "target", action.Target(), "outcome", res.Outcome)
	}

	turnLog.Reply = turn.Reply
	s.logTurn(turnLog)
	s.commit(Message{Role: RoleUser, Content: text}, Message{Role: RoleAssistant, Content: turn.Text()})

	slog.Info("SESSION: Turn complete", "turn", n, "reply_length", len(turn.Reply), "action", turn.Action != nil)
	return turn, nil
}

// converse calls the model until it produces a reply without tool calls.
func (s *Session) converse(ctx context.Context, msgs []Message, turnLog *pantrychef.TurnLog) (string, error) {
	prompt := Prompt{System: SystemPrompt, Messages: msgs, Tools: s.toolProvider.GetTools()}

	for iter := 0; iter < s.maxIterations; iter++ {
		iterLog := pantrychef.IterationLog{Iteration: iter + 1, Timestamp: time.Now()}
		if b, err := json.Marshal(prompt); err == nil {
			iterLog.LLMInput = string(b)
		}

		slog.Info("SESSION: Sending prompt to LLM",
			"iteration", iter+1,
			"messages_count", len(prompt.Messages),
			"tools_count", len(prompt.Tools),
		)

		res, err := s.client.Invoke(ctx, prompt)
		if err != nil {
			iterLog.Error = err.Error()
			turnLog.Iterations = append(turnLog.Iterations, iterLog)
			return "", fmt.Errorf("failed to invoke LLM: %w", err)
		}
		iterLog.LLMOutput = res

		if len(res.ToolCalls) == 0 {
			turnLog.Iterations = append(turnLog.Iterations, iterLog)
			if res.Content == "" {
				return "", fmt.Errorf("no tool_calls and no final content")
			}
			return res.Content, nil
		}

		calls := dedupeToolCalls(res.ToolCalls)
		if len(calls) < len(res.ToolCalls) {
			slog.Info("SESSION: Deduped tool calls", "requested", len(res.ToolCalls), "kept", len(calls))
		}

		prompt.Messages = append(prompt.Messages, Message{Role: RoleAssistant, Content: res.Content, ToolCalls: calls})
		for _, call := range calls {
			msg, callLog := s.runTool(ctx, call)
			iterLog.ToolCalls = append(iterLog.ToolCalls, callLog)
			prompt.Messages = append(prompt.Messages, msg)
		}
		turnLog.Iterations = append(turnLog.Iterations, iterLog)
	}

	return "", fmt.Errorf("no final reply after %d iterations", s.maxIterations)
}

// runTool executes one call. Tool failures are reported back to the model
// as an error payload so it can recover in the next iteration.
func (s *Session) runTool(ctx context.Context, call tools.Call) (Message, pantrychef.ToolCallLog) {
	ctx, span := s.tracer.Start(ctx, "Session.Tool", trace.WithAttributes(attribute.String("tool_name", call.Name)))
	defer span.End()

	s.metrics.toolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("tool_name", call.Name)))
	slog.Info("SESSION: Handling tool call", "name", call.Name)

	callLog := pantrychef.ToolCallLog{Name: call.Name, Input: call.Input}
	output, err := s.callTool(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool failed")
		slog.Warn("SESSION: Tool failed", "name", call.Name, "error", err)
		callLog.Error = err.Error()
		output = map[string]any{"error": err.Error()}
	}
	callLog.Output = output

	payload, err := json.Marshal(output)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return Message{
		Role:       RoleTool,
		Content:    string(payload),
		ToolName:   call.Name,
		ToolCallID: call.ToolUseID,
	}, callLog
}

func (s *Session) callTool(ctx context.Context, call tools.Call) (map[string]any, error) {
	tool, err := s.toolProvider.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	input := call.Input
	if input == nil {
		input = map[string]any{}
	}
	return tool.Run(ctx, input)
}

func (s *Session) fail(ctx context.Context, span trace.Span, turnLog *pantrychef.TurnLog, err error) error {
	s.metrics.turnsFailed.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, "turn failed")
	slog.Error("SESSION: Turn failed", "turn", turnLog.Turn, "error", err)

	turnLog.Error = err.Error()
	s.logTurn(*turnLog)
	return err
}

func (s *Session) logTurn(turn pantrychef.TurnLog) {
	if s.logger == nil {
		return
	}
	if err := s.logger.LogTurn(turn); err != nil {
		slog.Error("Failed to log conversation turn", "error", err, "turn", turn.Turn)
	}
}

func (s *Session) begin() ([]Message, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, 0, false
	}
	s.busy = true
	s.turns++
	return append([]Message(nil), s.history...), s.turns, true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) commit(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

// dedupeToolCalls keeps only the first call per (name, args) pair.
// Models sometimes repeat the same call within one response.
func dedupeToolCalls(calls []tools.Call) []tools.Call {
	seen := map[string]bool{}
	out := make([]tools.Call, 0, len(calls))
	for _, c := range calls {
		b, _ := json.Marshal(c.Input)
		key := c.Name + ":" + string(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
