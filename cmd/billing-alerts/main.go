package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/yapay-ai/aws-billing-alerts/internal/cli"
	"github.com/yapay-ai/aws-billing-alerts/internal/config"
	"github.com/yapay-ai/aws-billing-alerts/internal/handler"
)

func main() {
	// Scheduled Lambda in production, cobra CLI everywhere else.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(newLambdaHandler())
		return
	}
	cli.Execute()
}

// newLambdaHandler wires the pipeline at cold start. Wiring failures are not
// fatal: the returned handler reports them as 500 invocation results so the
// scheduler keeps a record of each failed run.
func newLambdaHandler() handler.HandlerFunc {
	cfg, err := config.Load("")
	if err != nil {
		return handler.ConfigFailure(err, defaultLogger())
	}

	logger := setupLogger(cfg)

	h, err := handler.Wire(context.Background(), cfg, logger)
	if err != nil {
		return handler.ConfigFailure(err, logger)
	}
	return h.Handle
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
