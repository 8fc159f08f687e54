package groqapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sweetsteps/httpmiddleware"
	"sweetsteps/logger"
	"sweetsteps/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const provider = modelapi.PROVIDER_GROQ

type ChatCompletionInputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatRequestInput struct {
	Model          string                       `json:"model"`
	Messages       []ChatCompletionInputMessage `json:"messages"`
	Temperature    float64                      `json:"temperature"`
	ResponseFormat *ResponseFormat              `json:"response_format,omitempty"`
}

type GroqResponse struct {
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GroqConnectProps struct {
	Logger  *logger.LogMiddleware
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one HTTP round trip. Zero keeps the caller's deadline only.
	Timeout time.Duration
}

// Groq talks to any OpenAI-compatible chat completions endpoint; Groq is the
// default base URL.
type Groq struct {
	logger *logger.LogMiddleware
	client *http.Client
	apiKey string
	url    string
	model  string
}

func Connect(ctx context.Context, args GroqConnectProps) *Groq {
	tracer := otel.Tracer("groqapi/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	baseURL := strings.TrimRight(args.BaseURL, "/")
	if baseURL == "" {
		baseURL = modelapi.GROQ_BASE_URL
	}
	model := args.Model
	if model == "" {
		model = modelapi.GROQ_DEFAULT_MODEL
	}
	log := args.Logger
	if log == nil {
		log = logger.Wrap(nil)
	}

	span.SetAttributes(
		attribute.String("api.base_url", baseURL),
		attribute.String("request.model", model),
	)

	return &Groq{
		logger: log,
		client: httpmiddleware.NewClient(args.Timeout),
		apiKey: args.APIKey,
		url:    baseURL + "/chat/completions",
		model:  model,
	}
}

func (o *Groq) Name() string { return provider }

// MakeAPIRequest sends exactly one chat completion request.
func (o *Groq) MakeAPIRequest(ctx context.Context, input ChatRequestInput) (*GroqResponse, error) {
	tracer := otel.Tracer("groqapi/MakeAPIRequest")
	ctx, span := tracer.Start(ctx, "MakeAPIRequest")
	defer span.End()

	span.SetAttributes(
		attribute.String("api.url", o.url),
		attribute.String("request.model", input.Model),
		attribute.Float64("request.temperature", input.Temperature),
	)

	if o.apiKey == "" {
		err := modelapi.NewTransportError(provider, "api key not configured", nil)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	jsonData, err := json.Marshal(input)
	if err != nil {
		span.RecordError(err)
		return nil, modelapi.NewTransportError(provider, "could not encode request body", err)
	}

	respBody, err := httpmiddleware.HttpRequest(httpmiddleware.HttpRequestStruct{
		Context: ctx,
		Client:  o.client,
		Method:  http.MethodPost,
		Url:     o.url,
		Body:    bytes.NewBuffer(jsonData),
		Headers: map[string]string{
			"authorization": "Bearer " + o.apiKey,
			"content-type":  "application/json",
		},
	})
	if err != nil {
		span.RecordError(err)
		te := modelapi.NewTransportError(provider, "could not make request to Groq", err)
		var statusErr *httpmiddleware.StatusError
		if errors.As(err, &statusErr) {
			te.StatusCode = statusErr.StatusCode
			span.SetAttributes(attribute.Int("response.status", statusErr.StatusCode))
		}
		o.logger.Logger(ctx).Error(
			"[Groq-API] Could not make request to Groq.",
			zap.Error(err),
			zap.Int("status", te.StatusCode),
			zap.String("model", input.Model),
		)
		return nil, te
	}

	var messageResponse GroqResponse
	if err := json.Unmarshal(respBody, &messageResponse); err != nil {
		span.RecordError(err)
		o.logger.Logger(ctx).Error(
			"[Groq-API] Could not parse Groq response envelope.",
			zap.Error(err),
			zap.String("response_body", string(respBody)),
		)
		return nil, modelapi.NewTransportError(provider, "malformed response envelope", err)
	}
	if messageResponse.Error != nil {
		return nil, modelapi.NewTransportError(provider, "upstream error: "+messageResponse.Error.Message, nil)
	}
	if len(messageResponse.Choices) == 0 {
		o.logger.Logger(ctx).Error(
			"[Groq-API] Groq response has no choices.",
			zap.String("response_body", string(respBody)),
		)
		return nil, modelapi.NewTransportError(provider, "response has no choices", nil)
	}

	span.AddEvent("Request successful")
	return &messageResponse, nil
}

// Complete asks for a JSON object answer to the given prompts.
func (o *Groq) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	tracer := otel.Tracer("groqapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.Int("prompt.system_length", len(systemPrompt)),
		attribute.Int("prompt.user_length", len(userPrompt)),
	)

	resp, err := o.MakeAPIRequest(ctx, ChatRequestInput{
		Model:       o.model,
		Temperature: modelapi.TEMPERATURE,
		Messages: []ChatCompletionInputMessage{
			{Role: modelapi.SYSTEM, Content: systemPrompt},
			{Role: modelapi.USER, Content: userPrompt},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", modelapi.NewTransportError(provider, "response message has no content", nil)
	}

	return content, nil
}
