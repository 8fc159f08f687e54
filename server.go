package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweetsteps/api"
	"sweetsteps/coaching"
	"sweetsteps/config"
	"sweetsteps/logger"
	"sweetsteps/modelapi"
	"sweetsteps/modelapi/geminiapi"
	"sweetsteps/modelapi/groqapi"
	"sweetsteps/modelapi/openaiapi"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// exitInvalidContext is the exit status of `generate` when the input lacks a
// required field.
const exitInvalidContext = 2

var inputFlag string

var rootCmd = &cobra.Command{
	Use:           "sweetsteps",
	Short:         "SweetSteps coaching backend",
	Long:          "Turns vague goals into a big goal, weekly mountains and bite-sized daily steps.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate <onboarding|weekly-mountain|daily-steps>",
	Short: "Run one generation and print the result as JSON",
	Long: `Reads the request context as JSON from --input or stdin, runs it through the
same pipeline as the HTTP API and prints {origin, kind, payload}.

Example:
  sweetsteps generate weekly-mountain --input '{"bigGoal":"Run a 5k in 3 months"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "request context as JSON (default: read stdin)")
	rootCmd.AddCommand(serveCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ice *coaching.InvalidContextError
		if errors.As(err, &ice) {
			os.Exit(exitInvalidContext)
		}
		os.Exit(1)
	}
}

// app holds everything both commands need.
type app struct {
	cfg      *config.Config
	logger   *logger.LogMiddleware
	pipeline *coaching.Pipeline
	shutdown func()
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	shutdown := func() {}
	var loggerProvider *sdk.LoggerProvider
	if cfg.Production {
		otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
		if err != nil {
			return nil, fmt.Errorf("setting up OTel SDK: %w", err)
		}

		logExporter, err := otlplogs.NewExporter(ctx)
		if err != nil {
			otelShutdown()
			return nil, fmt.Errorf("setting up OTLP log exporter: %w", err)
		}
		loggerProvider = sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))

		shutdown = func() {
			_ = loggerProvider.Shutdown(context.Background())
			otelShutdown()
		}
	}

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: cfg.Production, LoggerProvider: loggerProvider})

	completer := newCompleter(ctx, cfg, LogMiddleware)
	pipeline := coaching.NewPipeline(coaching.PipelineProps{
		Logger:         LogMiddleware,
		Completer:      completer,
		Provider:       providerName(completer, cfg.Provider),
		AttemptTimeout: cfg.AttemptTimeout,
	})

	return &app{
		cfg:      cfg,
		logger:   LogMiddleware,
		pipeline: pipeline,
		shutdown: func() {
			_ = LogMiddleware.Sync()
			shutdown()
		},
	}, nil
}

// newCompleter builds the client for the configured provider. A client that
// cannot be built leaves the completer nil, so every generation falls back.
func newCompleter(ctx context.Context, cfg *config.Config, LogMiddleware *logger.LogMiddleware) coaching.Completer {
	Logger := LogMiddleware.Logger(ctx)
	if cfg.APIKey == "" {
		Logger.Warn("[Server] No API key configured, every generation will use the fallback", zap.String("provider", cfg.Provider))
	}

	switch cfg.Provider {
	case modelapi.PROVIDER_OPENAI:
		return openaiapi.Connect(ctx, openaiapi.OpenAIConnectProps{
			Logger:  LogMiddleware,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case modelapi.PROVIDER_GEMINI:
		gemini, err := geminiapi.Connect(ctx, geminiapi.GeminiConnectProps{
			Logger:  LogMiddleware,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			Logger.Error("[Server] Could not create Gemini client", zap.Error(err))
			return nil
		}
		return gemini
	default:
		return groqapi.Connect(ctx, groqapi.GroqConnectProps{
			Logger:  LogMiddleware,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	}
}

type namedCompleter interface {
	Name() string
}

// providerName labels transport errors with the client's own name, or with
// the configured provider when no client could be built.
func providerName(c coaching.Completer, fallback string) string {
	if n, ok := c.(namedCompleter); ok {
		return n.Name()
	}
	return fallback
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown()

	Logger := a.logger.Logger(ctx)
	if a.cfg.Production {
		Logger.Info("[Server] Starting in production mode")
	} else {
		Logger.Info("[Server] Starting in development mode")
	}

	server := api.Connect(ctx, api.ServerConnectProps{
		Logger:         a.logger,
		Generator:      a.pipeline,
		AllowedOrigins: a.cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      coaching.MaxAttempts*a.cfg.AttemptTimeout + 10*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		Logger.Info("[Server] Listening",
			zap.String("addr", httpServer.Addr),
			zap.String("provider", a.cfg.Provider),
			zap.String("model", a.cfg.Model),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		Logger.Info("[Server] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type generateOutput struct {
	Origin  coaching.Origin  `json:"origin"`
	Kind    coaching.Kind    `json:"kind"`
	Payload coaching.Payload `json:"payload"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, err := coaching.ParseKind(args[0])
	if err != nil {
		return err
	}

	body := []byte(inputFlag)
	if inputFlag == "" {
		body, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown()

	return generate(ctx, a.pipeline, kind, body, cmd.OutOrStdout())
}

func generate(ctx context.Context, pipeline *coaching.Pipeline, kind coaching.Kind, body []byte, w io.Writer) error {
	result, err := pipeline.GenerateJSON(ctx, kind, body)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(generateOutput{Origin: result.Origin, Kind: result.Kind, Payload: result.Payload})
}
