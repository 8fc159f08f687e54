package openaiapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"sweetsteps/httpmiddleware"
	"sweetsteps/logger"
	"sweetsteps/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const provider = modelapi.PROVIDER_OPENAI

type OpenAI struct {
	logger *logger.LogMiddleware
	client *openai.Client
	model  string
}

type OpenAIConnectProps struct {
	Logger  *logger.LogMiddleware
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func Connect(ctx context.Context, args OpenAIConnectProps) *OpenAI {
	tracer := otel.Tracer("openaiapi/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	model := args.Model
	if model == "" {
		model = modelapi.OPENAI_DEFAULT_MODEL
	}
	baseURL := args.BaseURL
	if baseURL == "" {
		baseURL = modelapi.OPENAI_BASE_URL
	}
	log := args.Logger
	if log == nil {
		log = logger.Wrap(nil)
	}

	span.SetAttributes(
		attribute.String("api.base_url", baseURL),
		attribute.String("request.model", model),
	)

	// Retries belong to the coaching orchestrator; one call here is one request upstream.
	opts := []option.RequestOption{
		option.WithAPIKey(args.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpmiddleware.NewClient(args.Timeout)),
	}

	client := openai.NewClient(opts...)

	return &OpenAI{logger: log, client: &client, model: model}
}

func (d *OpenAI) Name() string { return provider }

func (d *OpenAI) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	tracer := otel.Tracer("openaiapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.model", d.model),
		attribute.Int("prompt.user_length", len(userPrompt)),
	)

	res, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(d.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(modelapi.TEMPERATURE),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		span.RecordError(err)
		te := modelapi.NewTransportError(provider, "chat completion request failed", err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			te.StatusCode = apiErr.StatusCode
		}
		d.logger.Logger(ctx).Error("[OpenAIAPI] Chat completion failed",
			zap.Error(err),
			zap.Int("status", te.StatusCode),
			zap.String("model", d.model),
		)
		return "", te
	}

	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		d.logger.Logger(ctx).Warn("[OpenAIAPI] Chat completion returned no content")
		return "", modelapi.NewTransportError(provider, "response message has no content", nil)
	}

	span.AddEvent("Request successful")
	return res.Choices[0].Message.Content, nil
}
