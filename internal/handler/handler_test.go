package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapay-ai/aws-billing-alerts/internal/config"
	"github.com/yapay-ai/aws-billing-alerts/internal/handler"
	"github.com/yapay-ai/aws-billing-alerts/pkg/alerts"
	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

type fakeCostExplorer struct {
	total     *costexplorer.GetCostAndUsageOutput
	byService *costexplorer.GetCostAndUsageOutput
	err       error
}

func (f *fakeCostExplorer) GetCostAndUsage(_ context.Context, params *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(params.GroupBy) > 0 {
		return f.byService, nil
	}
	return f.total, nil
}

func output(amount string, groups ...cetypes.Group) *costexplorer.GetCostAndUsageOutput {
	rt := cetypes.ResultByTime{Groups: groups}
	if amount != "" {
		rt.Total = map[string]cetypes.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount)},
		}
	}
	return &costexplorer.GetCostAndUsageOutput{ResultsByTime: []cetypes.ResultByTime{rt}}
}

func group(service, amount string) cetypes.Group {
	return cetypes.Group{
		Keys: []string{service},
		Metrics: map[string]cetypes.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount)},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(api billing.CostExplorerAPI, webhookURL string) *handler.Handler {
	logger := testLogger()
	retriever := billing.NewRetriever(api, 0, logger)
	notifiers := []alerts.Notifier{alerts.NewSlackNotifier(webhookURL, "", 0, logger)}
	return handler.New(retriever, notifiers, logger)
}

func TestHandle_Success(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fake := &fakeCostExplorer{
		total:     output("123.456"),
		byService: output("", group("Amazon EC2", "100.00"), group("Amazon S3", "23.456")),
	}

	h := newTestHandler(fake, server.URL)
	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Billing alert sent successfully", resp.Body)

	payload := string(body)
	assert.Contains(t, payload, "Total Cost:* $123.46")
	ec2 := strings.Index(payload, "Amazon EC2: $100.00")
	s3 := strings.Index(payload, "Amazon S3: $23.46")
	require.GreaterOrEqual(t, ec2, 0)
	require.GreaterOrEqual(t, s3, 0)
	assert.Less(t, ec2, s3)
}

func TestHandle_ExcludesTinyCosts(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fake := &fakeCostExplorer{
		total:     output("10.005"),
		byService: output("", group("Amazon EC2", "10.00"), group("AWS Secrets Manager", "0.005")),
	}

	h := newTestHandler(fake, server.URL)
	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Amazon EC2")
	assert.NotContains(t, string(body), "AWS Secrets Manager")
}

func TestHandle_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fake := &fakeCostExplorer{
		total:     output("10.00"),
		byService: output("", group("Amazon EC2", "10.00")),
	}

	h := newTestHandler(fake, server.URL)
	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error: Webhook failed with status 500", resp.Body)
}

func TestHandle_CostAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("webhook should not be called when retrieval fails")
	}))
	defer server.Close()

	fake := &fakeCostExplorer{err: errors.New("AccessDeniedException")}

	h := newTestHandler(fake, server.URL)
	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Body, "Error: cost explorer total query"), resp.Body)
}

func TestConfigFailure(t *testing.T) {
	fn := handler.ConfigFailure(config.ErrWebhookURLRequired, testLogger())

	resp, err := fn(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error: webhook url is required (set WEBHOOK_URL)", resp.Body)
}
