package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studyfriend",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of AI completion requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyfriend",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of AI completion failures",
	}, []string{"model", "operation"})
)

// OpenAIConfig defines configuration options for the OpenAI-compatible client.
// BaseURL allows pointing the client at any provider speaking the OpenAI chat
// completion protocol.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	Logger         zerolog.Logger
}

// OpenAIAssistant implements Assistant against an OpenAI-compatible API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "mixtral-8x7b-32768"
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	tracer := otel.Tracer("github.com/noah-isme/studyfriend-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIAssistant{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Complete sends the conversation to the model and returns the reply text.
func (a *OpenAIAssistant) Complete(parent context.Context, messages []Message) (string, error) {
	ctx, span := a.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chat = append(chat, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages:    chat,
	})
	aiDuration.WithLabelValues(a.cfg.Model, "complete").Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model, "complete").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("ai complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from model")
		aiFailures.WithLabelValues(a.cfg.Model, "complete").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed converts text into an embedding vector.
func (a *OpenAIAssistant) Embed(parent context.Context, text string) ([]float32, error) {
	ctx, span := a.tracer.Start(parent, "openai.embed", trace.WithAttributes(
		attribute.String("model", a.cfg.EmbeddingModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.cfg.EmbeddingModel),
		Input: []string{text},
	})
	aiDuration.WithLabelValues(a.cfg.EmbeddingModel, "embed").Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.EmbeddingModel, "embed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("ai embed: %w", err)
	}

	if len(resp.Data) == 0 {
		err := fmt.Errorf("no embedding returned from model")
		aiFailures.WithLabelValues(a.cfg.EmbeddingModel, "embed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return resp.Data[0].Embedding, nil
}
