package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pantrychef"
	"pantrychef/chat"
	"pantrychef/chat/bedrock"
	"pantrychef/pantry"
	"pantrychef/storage"
	"pantrychef/tools"
)

type Params struct {
	UserID  string         `json:"user_id"`
	Message string         `json:"message"`
	History []chat.Message `json:"history,omitempty"`
}

type Results struct {
	Reply        string         `json:"reply"`
	Confirmation string         `json:"confirmation,omitempty"`
	Outcome      pantry.Outcome `json:"outcome,omitempty"`
}

// deps is everything one invocation needs besides its params.
type deps struct {
	client        chat.Client
	store         pantry.Store
	book          tools.RecipeLister
	logger        pantrychef.ConversationLogger
	tracer        trace.Tracer
	meter         metric.Meter
	maxIterations int
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig pantrychef.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode model config: %w", err)
		}

		var agentConfig pantrychef.AgentConfig
		if err := envdecode.Decode(&agentConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode agent config: %w", err)
		}

		var s3Config pantrychef.S3Config
		if err := envdecode.Decode(&s3Config); err != nil {
			return Results{}, fmt.Errorf("missing S3 config: %w", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		store := storage.NewDocumentStore(storage.NewS3Document(s3Client, s3Config.Bucket, s3Config.PantryKey))
		book := storage.NewRecipeBook(storage.NewS3Document(s3Client, s3Config.Bucket, s3Config.RecipesKey))
		slog.Info("SETUP: S3 pantry and recipe documents initialized", "bucket", s3Config.Bucket)

		llm := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		tracerProvider, meterProvider, otelShutdown, err := pantrychef.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		if params.UserID == "" {
			params.UserID = agentConfig.UserID
		}

		return handle(ctx, deps{
			client:        llm,
			store:         store,
			book:          book,
			logger:        pantrychef.NewStdoutConversationLogger(),
			tracer:        tracerProvider.Tracer(pantrychef.TracerNameBedrock),
			meter:         meterProvider.Meter(pantrychef.MeterNameChat),
			maxIterations: agentConfig.MaxIterations,
		}, params)
	}

	lambda.Start(fn)
}

// handle runs a single chat turn for params.UserID, seeded with the
// caller's history.
func handle(ctx context.Context, d deps, params Params) (Results, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return Results{}, errors.New("user_id is required")
	}
	if strings.TrimSpace(params.Message) == "" {
		return Results{}, errors.New("message is required")
	}

	opts := []chat.Option{
		chat.WithUserID(params.UserID),
		chat.WithHistory(params.History),
		chat.WithMaxIterations(d.maxIterations),
	}
	if d.logger != nil {
		opts = append(opts, chat.WithLogger(d.logger))
	}
	if d.tracer != nil {
		opts = append(opts, chat.WithTracer(d.tracer))
	}
	if d.meter != nil {
		opts = append(opts, chat.WithMeter(d.meter))
	}

	session := chat.NewSession(
		d.client,
		tools.NewRegistry(d.store, d.book, params.UserID),
		pantry.NewExecutor(d.store, params.UserID),
		opts...,
	)

	turn, err := session.Send(ctx, params.Message)
	if err != nil {
		slog.Error("RESULT: Error handling message", "error", err)
		return Results{}, err
	}

	res := Results{Reply: turn.Reply, Confirmation: turn.Confirmation()}
	if turn.Result != nil {
		res.Outcome = turn.Result.Outcome
	}
	return res, nil
}
