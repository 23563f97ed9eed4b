package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"pantrychef"
	"pantrychef/chat"
	"pantrychef/chat/ollama"
	"pantrychef/pantry"
	"pantrychef/slack"
	"pantrychef/storage"
	"pantrychef/tools"
)

func main() {
	ctx := context.Background()

	var modelConfig pantrychef.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var agentConfig pantrychef.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	store, closeStore, err := newStore(agentConfig)
	if err != nil {
		slog.Error("SETUP: Failed to open pantry store", "error", err)
		return
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("SETUP: Failed to close pantry store", "error", err)
		}
	}()

	book := storage.NewRecipeBook(storage.NewFileDocument(agentConfig.ArtifactsRecipesPath))
	registry := tools.NewRegistry(store, book, agentConfig.UserID)
	executor := pantry.NewExecutor(store, agentConfig.UserID)

	llm, err := ollama.NewClient(ollama.ClientOpts{
		BaseEndpoint: agentConfig.BaseOllamaEndpoint,
		ModelID:      modelConfig.ModelID,
		HTTPClient:   http.DefaultClient,
		Temperature:  modelConfig.Temperature,
		TopP:         modelConfig.TopP,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create LLM client", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := pantrychef.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	logger, cleanup, err := newConversationLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create conversation logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush conversation log", "error", err)
		}
	}()

	session := chat.NewSession(llm, registry, executor,
		chat.WithMaxIterations(agentConfig.MaxIterations),
		chat.WithUserID(agentConfig.UserID),
		chat.WithLogger(logger),
		chat.WithTracer(tracerProvider.Tracer(pantrychef.TracerNameOllama)),
		chat.WithMeter(meterProvider.Meter(pantrychef.MeterNameChat)),
		chat.WithDebugDump(agentConfig.DebugDump),
	)

	var notifier pantrychef.Notifier
	if agentConfig.SlackWebhookURL != "" {
		notifier = slack.NewClient(agentConfig.SlackWebhookURL, http.DefaultClient)
	}

	r := repl{
		session:  session,
		store:    store,
		book:     book,
		notifier: notifier,
		channel:  agentConfig.SlackChannel,
		userID:   agentConfig.UserID,
		out:      os.Stdout,
	}
	if err := r.run(ctx, os.Stdin); err != nil {
		slog.Error("FAILURE: Reading input", "error", err)
	}
}

type repl struct {
	session  *chat.Session
	store    pantry.Store
	book     tools.RecipeLister
	notifier pantrychef.Notifier
	channel  string
	userID   string
	out      io.Writer
}

// run reads one message per line until EOF or /quit. "/cooked <name>"
// deducts a saved recipe's ingredients from the pantry.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "Pantry chat. Type /quit to exit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/cooked":
			fmt.Fprintln(r.out, "Usage: /cooked <recipe name>")
			continue
		case strings.HasPrefix(line, "/cooked "):
			r.cooked(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/cooked ")))
			continue
		}

		turn, err := r.session.Send(ctx, line)
		if err != nil {
			slog.Error("FAILURE: Error handling message", "error", err)
			fmt.Fprintln(r.out, "Sorry, something went wrong. Please try again.")
			continue
		}
		fmt.Fprintln(r.out, turn.Text())

		if turn.Result != nil && r.notifier != nil {
			if err := r.notifier.PostConfirmation(ctx, r.channel, *turn.Result); err != nil {
				slog.Error("Failed to post confirmation to Slack", "error", err)
			}
		}
	}
}

func (r *repl) cooked(ctx context.Context, name string) {
	recipes, err := r.book.List(ctx, r.userID)
	if err != nil {
		slog.Error("FAILURE: Listing saved recipes", "error", err)
		fmt.Fprintln(r.out, "I couldn't load your saved recipes.")
		return
	}

	for _, rec := range recipes {
		if !strings.EqualFold(rec.Name, name) {
			continue
		}
		c, err := pantry.ConsumeRecipe(ctx, r.store, r.userID, rec, time.Now())
		if err != nil {
			slog.Error("FAILURE: Consuming recipe", "recipe", rec.Name, "error", err)
			fmt.Fprintln(r.out, "Something went wrong updating your pantry. Please try again.")
			return
		}
		msg := fmt.Sprintf("Updated %d pantry items for %s.", len(c.Used), rec.Name)
		if len(c.Missing) > 0 {
			msg += " Not in your pantry: " + strings.Join(c.Missing, ", ") + "."
		}
		if len(c.Skipped) > 0 {
			msg += " Different units, left alone: " + strings.Join(c.Skipped, ", ") + "."
		}
		fmt.Fprintln(r.out, msg)
		if r.notifier != nil {
			if err := r.notifier.PostMessage(ctx, r.channel, msg); err != nil {
				slog.Error("Failed to post cooked recipe to Slack", "error", err)
			}
		}
		return
	}
	fmt.Fprintf(r.out, "I couldn't find a saved recipe called %q.\n", name)
}

// newStore opens the sqlite store when SQLITE_PATH is set, and the JSON
// pantry file otherwise.
func newStore(cfg pantrychef.AgentConfig) (pantry.Store, func() error, error) {
	if cfg.SQLitePath != "" {
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("SETUP: Using sqlite pantry store", "path", cfg.SQLitePath)
		return s, s.Close, nil
	}
	slog.Info("SETUP: Using JSON pantry store", "path", cfg.ArtifactsPantryPath)
	doc := storage.NewFileDocument(cfg.ArtifactsPantryPath)
	return storage.NewDocumentStore(doc), func() error { return nil }, nil
}

func newConversationLogger(modelID string) (pantrychef.ConversationLogger, func() error, error) {
	logFilePath := pantrychef.NewConversationLogFilePath(modelID)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := pantrychef.NewFileConversationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
