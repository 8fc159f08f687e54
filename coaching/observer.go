package coaching

import (
	"context"

	"sweetsteps/logger"

	"go.uber.org/zap"
)

// Observer is told about every failure transition of a generation. It is
// for diagnosis only; nothing depends on what it does.
type Observer interface {
	TransportFailed(ctx context.Context, kind Kind, attempt int, err error)
	ParseFailed(ctx context.Context, kind Kind, attempt int, err error)
	FallbackActivated(ctx context.Context, kind Kind, attempts int)
}

type NopObserver struct{}

func (NopObserver) TransportFailed(context.Context, Kind, int, error) {}
func (NopObserver) ParseFailed(context.Context, Kind, int, error)     {}
func (NopObserver) FallbackActivated(context.Context, Kind, int)      {}

// LogObserver reports failures through the structured logger.
type LogObserver struct {
	logger *logger.LogMiddleware
}

func NewLogObserver(l *logger.LogMiddleware) *LogObserver {
	return &LogObserver{logger: l}
}

func (o *LogObserver) TransportFailed(ctx context.Context, kind Kind, attempt int, err error) {
	o.logger.Logger(ctx).Warn("[Coaching] Upstream completion failed",
		zap.String("kind", string(kind)),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", MaxAttempts),
		zap.Error(err),
	)
}

func (o *LogObserver) ParseFailed(ctx context.Context, kind Kind, attempt int, err error) {
	o.logger.Logger(ctx).Warn("[Coaching] Model output rejected",
		zap.String("kind", string(kind)),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", MaxAttempts),
		zap.Error(err),
	)
}

func (o *LogObserver) FallbackActivated(ctx context.Context, kind Kind, attempts int) {
	o.logger.Logger(ctx).Error("[Coaching] Fallback activated",
		zap.String("kind", string(kind)),
		zap.Int("attempts", attempts),
	)
}
