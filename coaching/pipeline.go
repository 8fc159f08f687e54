package coaching

import (
	"context"
	"time"

	"sweetsteps/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Origin tells whether a payload came from the model or from the fallback.
type Origin string

const (
	OriginModel    Origin = "model"
	OriginFallback Origin = "fallback"
)

type Result struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Origin   Origin  `json:"origin"`
	Payload  Payload `json:"payload"`
	Attempts int     `json:"attempts"`
}

func (r *Result) IsFallback() bool {
	return r.Origin == OriginFallback
}

type PipelineProps struct {
	Logger         *logger.LogMiddleware
	Completer      Completer
	Observer       Observer
	Provider       string
	AttemptTimeout time.Duration
}

// Pipeline is the single entry point used by the HTTP shell and the CLI.
type Pipeline struct {
	logger       *logger.LogMiddleware
	orchestrator *Orchestrator
}

func NewPipeline(args PipelineProps) *Pipeline {
	log := args.Logger
	if log == nil {
		log = logger.Wrap(nil)
	}
	observer := args.Observer
	if observer == nil {
		observer = NewLogObserver(log)
	}

	return &Pipeline{
		logger: log,
		orchestrator: NewOrchestrator(OrchestratorProps{
			Completer:      args.Completer,
			Observer:       observer,
			Provider:       args.Provider,
			AttemptTimeout: args.AttemptTimeout,
		}),
	}
}

// Generate validates req and runs the orchestrator. The only error it
// returns is *InvalidContextError; every upstream failure ends in a fallback
// Result instead.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	tracer := otel.Tracer("coaching/Generate")
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	if req == nil {
		return nil, &InvalidContextError{Reason: "missing request"}
	}
	kind := req.Kind()
	span.SetAttributes(attribute.String("coaching.kind", string(kind)))

	if err := req.Validate(); err != nil {
		span.AddEvent("Invalid context")
		p.logger.Logger(ctx).Info("[Coaching] Rejected request context",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	start := time.Now()
	result := p.orchestrator.Run(ctx, req)
	result.ID = uuid.NewString()

	span.SetAttributes(attribute.String("coaching.generation_id", result.ID))
	p.logger.Logger(ctx).Info("[Coaching] Generation finished",
		zap.String("generation_id", result.ID),
		zap.String("kind", string(kind)),
		zap.String("origin", string(result.Origin)),
		zap.Int("attempts", result.Attempts),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// GenerateJSON decodes a raw request body for kind and generates from it.
func (p *Pipeline) GenerateJSON(ctx context.Context, kind Kind, body []byte) (*Result, error) {
	req, err := DecodeRequest(kind, body)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, req)
}
