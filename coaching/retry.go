package coaching

import (
	"context"
	"fmt"
	"time"

	"sweetsteps/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxAttempts caps upstream calls per generation: the first try plus one retry.
const MaxAttempts = 2

// Completer sends one chat completion and returns the raw message content.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

type OrchestratorProps struct {
	Completer Completer
	Observer  Observer
	// Provider labels transport errors from completers that return plain errors.
	Provider       string
	AttemptTimeout time.Duration
}

// Orchestrator runs up to MaxAttempts independent prompt, complete, parse
// rounds and falls back to the static payload when all of them fail.
type Orchestrator struct {
	completer Completer
	observer  Observer
	provider  string
	timeout   time.Duration
}

func NewOrchestrator(args OrchestratorProps) *Orchestrator {
	observer := args.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	timeout := args.AttemptTimeout
	if timeout <= 0 {
		timeout = modelapi.DEFAULT_ATTEMPT_TIMEOUT
	}
	provider := args.Provider
	if provider == "" {
		provider = "upstream"
	}

	return &Orchestrator{
		completer: args.Completer,
		observer:  observer,
		provider:  provider,
		timeout:   timeout,
	}
}

// Run never fails: it returns a model payload or the kind's fallback.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	tracer := otel.Tracer("coaching/Run")
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	kind := req.Kind()
	span.SetAttributes(attribute.String("coaching.kind", string(kind)))

	attempts := 0
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 && ctx.Err() != nil {
			span.AddEvent("Caller gone, skipping retry")
			break
		}

		attempts = attempt
		span.AddEvent("Attempt", trace.WithAttributes(attribute.Int("attemptNumber", attempt)))

		payload, err := o.attempt(ctx, req, attempt)
		if err == nil {
			span.SetAttributes(
				attribute.String("coaching.origin", string(OriginModel)),
				attribute.Int("coaching.attempts", attempt),
			)
			return &Result{Kind: kind, Origin: OriginModel, Payload: payload, Attempts: attempt}
		}
		span.RecordError(err)
	}

	o.observer.FallbackActivated(ctx, kind, attempts)
	span.SetAttributes(
		attribute.String("coaching.origin", string(OriginFallback)),
		attribute.Int("coaching.attempts", attempts),
	)

	return &Result{Kind: kind, Origin: OriginFallback, Payload: Fallback(kind), Attempts: attempts}
}

// attempt builds a fresh prompt and makes one upstream call under the
// per-attempt timeout. Nothing carries over between attempts.
func (o *Orchestrator) attempt(ctx context.Context, req Request, n int) (payload Payload, err error) {
	kind := req.Kind()
	prompt := BuildPrompt(req)

	raw, err := o.complete(ctx, prompt)
	if err != nil {
		te := modelapi.AsTransportError(o.provider, err)
		o.observer.TransportFailed(ctx, kind, n, te)
		return nil, te
	}

	payload, err = Parse(raw, kind)
	if err != nil {
		o.observer.ParseFailed(ctx, kind, n, err)
		return nil, err
	}

	return payload, nil
}

func (o *Orchestrator) complete(ctx context.Context, prompt Prompt) (raw string, err error) {
	if o.completer == nil {
		return "", modelapi.NewTransportError(o.provider, "no completion client configured", nil)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// A panicking completer counts as a failed call.
	defer func() {
		if r := recover(); r != nil {
			raw = ""
			err = modelapi.NewTransportError(o.provider, "completion client panicked", fmt.Errorf("%v", r))
		}
	}()

	return o.completer.Complete(attemptCtx, prompt.System, prompt.User)
}
