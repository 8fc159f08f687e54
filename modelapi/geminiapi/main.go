package geminiapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sweetsteps/httpmiddleware"
	"sweetsteps/logger"
	"sweetsteps/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const provider = modelapi.PROVIDER_GEMINI

type GeminiConnectProps struct {
	Logger  *logger.LogMiddleware
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Gemini struct {
	logger *logger.LogMiddleware
	client *genai.Client
	model  string
}

func Connect(ctx context.Context, args GeminiConnectProps) (*Gemini, error) {
	tracer := otel.Tracer("geminiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	log := args.Logger
	if log == nil {
		log = logger.Wrap(nil)
	}
	log.Logger(ctx).Info("[GeminiAPI] Connecting Gemini API client")

	model := args.Model
	if model == "" {
		model = modelapi.GEMINI_DEFAULT_MODEL
	}
	span.SetAttributes(attribute.String("request.model", model))

	config := &genai.ClientConfig{
		APIKey:     args.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpmiddleware.NewClient(args.Timeout),
	}
	if args.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: args.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		span.RecordError(err)
		log.Logger(ctx).Error("[GeminiAPI] Could not create Gemini client", zap.Error(err))
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{logger: log, client: client, model: model}, nil
}

func (g *Gemini) Name() string { return provider }

// Complete runs one GenerateContent call with JSON output enforced through
// the response MIME type.
func (g *Gemini) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	tracer := otel.Tracer("geminiapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.model", g.model),
		attribute.Int("prompt.user_length", len(userPrompt)),
	)

	thinkingBudget := int32(0)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr[float32](modelapi.TEMPERATURE),
		ResponseMIMEType:  "application/json",
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error("[GeminiAPI] Error generating LLM content", zap.Error(err))
		return "", modelapi.NewTransportError(provider, "generate content failed", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		g.logger.Logger(ctx).Warn("[GeminiAPI] Received empty or invalid LLM response")
		span.AddEvent("EmptyResponse")
		return "", modelapi.NewTransportError(provider, "response has no candidates", nil)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", modelapi.NewTransportError(provider, "response candidate has no text", nil)
	}

	span.AddEvent("LLM generation successful")
	return text, nil
}
