package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/google/uuid"

	"github.com/yapay-ai/aws-billing-alerts/internal/config"
	"github.com/yapay-ai/aws-billing-alerts/pkg/alerts"
	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

// Response is the Lambda invocation result.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// HandlerFunc is the signature registered with the Lambda runtime.
type HandlerFunc func(ctx context.Context, event json.RawMessage) (Response, error)

// Handler runs the retrieve-and-notify pipeline for one scheduled invocation.
type Handler struct {
	retriever *billing.Retriever
	notifiers []alerts.Notifier
	logger    *slog.Logger
}

// New creates a handler with the given dependencies.
func New(retriever *billing.Retriever, notifiers []alerts.Notifier, logger *slog.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Wire builds a fully wired handler: Cost Explorer client from the ambient
// AWS credential chain, Slack notifier from the configured webhook.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	retriever := billing.NewRetriever(costexplorer.NewFromConfig(awsCfg), cfg.Alert.MinCost, logger)
	notifiers := []alerts.Notifier{
		alerts.NewSlackNotifier(cfg.Webhook.URL, cfg.Alert.Header, cfg.Alert.TopServices, logger),
	}

	return New(retriever, notifiers, logger), nil
}

// Handle processes one scheduled invocation. The event payload is ignored;
// the schedule only decides when to run. Every failure is converted into a
// 500 response rather than a handler error, so the scheduler always sees a
// completed invocation.
func (h *Handler) Handle(ctx context.Context, _ json.RawMessage) (Response, error) {
	logger := h.logger.With("invocation_id", uuid.New().String())

	period := billing.MonthToDate(time.Now())
	summary, err := h.retriever.Retrieve(ctx, period)
	if err != nil {
		return h.failure(logger, err), nil
	}

	for _, n := range h.notifiers {
		if err := n.Send(ctx, *summary); err != nil {
			return h.failure(logger, err), nil
		}
	}

	logger.Info("billing alert sent successfully",
		"total_cost", summary.TotalCost,
		"services", len(summary.ServiceCosts),
	)
	return Response{StatusCode: http.StatusOK, Body: "Billing alert sent successfully"}, nil
}

func (h *Handler) failure(logger *slog.Logger, err error) Response {
	var apiErr *billing.APIError
	var deliveryErr *alerts.DeliveryError
	switch {
	case errors.As(err, &apiErr):
		logger.Error("cost retrieval failed", "query", apiErr.Query, "error", err)
	case errors.As(err, &deliveryErr):
		logger.Error("notification delivery failed", "notifier", deliveryErr.Notifier, "error", err)
	default:
		logger.Error("invocation failed", "error", err)
	}
	return Response{StatusCode: http.StatusInternalServerError, Body: "Error: " + err.Error()}
}

// ConfigFailure returns a handler that reports a startup configuration error
// on every invocation instead of crashing the runtime.
func ConfigFailure(err error, logger *slog.Logger) HandlerFunc {
	return func(context.Context, json.RawMessage) (Response, error) {
		logger.Error("configuration error", "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: "Error: " + err.Error()}, nil
	}
}
