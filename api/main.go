package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sweetsteps/coaching"
	"sweetsteps/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	HeaderOrigin       = "X-SweetSteps-Origin"
	HeaderGenerationID = "X-Generation-ID"

	maxBodyBytes = 1 << 20
)

// Generator is the part of coaching.Pipeline the HTTP shell depends on.
type Generator interface {
	Generate(ctx context.Context, req coaching.Request) (*coaching.Result, error)
}

type ServerConnectProps struct {
	Logger         *logger.LogMiddleware
	Generator      Generator
	AllowedOrigins []string
}

type Server struct {
	logger    *logger.LogMiddleware
	generator Generator
	handler   http.Handler
}

func Connect(ctx context.Context, args ServerConnectProps) *Server {
	log := args.Logger
	if log == nil {
		log = logger.Wrap(nil)
	}

	s := &Server{logger: log, generator: args.Generator}

	origins := args.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{HeaderOrigin, HeaderGenerationID},
		OptionsSuccessStatus: http.StatusNoContent,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)
	r.Use(optionsMiddleware)
	r.Use(requestLoggerMiddleware(log))

	r.Get("/", s.health)
	r.Get("/health", s.health)
	r.Post("/onboarding-plan", s.generate(coaching.KindOnboarding))
	r.Post("/weekly-mountain", s.generate(coaching.KindWeeklyMountain))
	r.Post("/daily-steps", s.generate(coaching.KindDailySteps))

	s.handler = otelhttp.NewHandler(r, "sweetsteps")

	log.Logger(ctx).Info("[HTTP] Router ready", zap.Strings("allowed_origins", origins))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) generate(kind coaching.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("api/generate")
		ctx, span := tracer.Start(r.Context(), "generate")
		defer span.End()
		span.SetAttributes(attribute.String("coaching.kind", string(kind)))

		body := readBody(r)
		s.logger.Logger(ctx).Debug("[HTTP] Raw request body",
			zap.String("kind", string(kind)),
			zap.ByteString("body", body),
		)

		req, err := coaching.DecodeRequest(kind, body)
		if err == nil {
			var result *coaching.Result
			result, err = s.generator.Generate(ctx, req)
			if err == nil {
				w.Header().Set(HeaderOrigin, string(result.Origin))
				w.Header().Set(HeaderGenerationID, result.ID)
				writeJSON(w, http.StatusOK, result.Payload)
				return
			}
		}

		span.RecordError(err)
		var ice *coaching.InvalidContextError
		if errors.As(err, &ice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ice.Error()})
			return
		}

		// Generate only fails on bad input; anything else is a bug.
		s.logger.Logger(ctx).Error("[HTTP] Unexpected generation error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// readBody returns the request body regardless of Content-Type. Read errors
// yield an empty body, which later fails validation.
func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// optionsMiddleware answers OPTIONS requests that are not CORS preflights
// (those are already handled by cors) with an empty 204.
func optionsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLoggerMiddleware(logger *logger.LogMiddleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			logger.Logger(ctx).Info("[HTTP] Request Received",
				zap.String("url", r.URL.Path),
				zap.String("method", r.Method),
				zap.String("request_id", middleware.GetReqID(ctx)),
			)
			next.ServeHTTP(ww, r)
			logger.Logger(ctx).Info("[HTTP] Request Completed",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.Int("status", ww.Status()),
			)
		})
	}
}
