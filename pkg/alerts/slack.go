package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

// DefaultHeader labels the alert when no header is configured.
const DefaultHeader = "🏦 AWS Billing Alert"

// DefaultTopServices caps the service breakdown block.
const DefaultTopServices = 10

// SlackNotifier posts billing summaries to a Slack incoming webhook as a
// Block Kit document.
type SlackNotifier struct {
	webhookURL  string
	header      string
	topServices int
	client      *http.Client
	logger      *slog.Logger
}

// NewSlackNotifier creates a Slack webhook notifier. Empty header and
// non-positive topServices fall back to the defaults.
func NewSlackNotifier(webhookURL, header string, topServices int, logger *slog.Logger) *SlackNotifier {
	if header == "" {
		header = DefaultHeader
	}
	if topServices <= 0 {
		topServices = DefaultTopServices
	}
	return &SlackNotifier{
		webhookURL:  webhookURL,
		header:      header,
		topServices: topServices,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

// Send posts the summary to the webhook. Any response other than 200 is a
// delivery failure.
func (s *SlackNotifier) Send(ctx context.Context, summary billing.Summary) error {
	body, err := json.Marshal(s.message(summary))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Notifier: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DeliveryError{Notifier: s.Name(), Status: resp.StatusCode}
	}

	s.logger.Info("billing alert sent", "total_cost", fmt.Sprintf("$%.2f", summary.TotalCost))
	return nil
}

// message builds the block document: header, cost summary, and, when any
// service cleared the cost floor, the top services by spend.
func (s *SlackNotifier) message(summary billing.Summary) slackMessage {
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: s.header}},
		{Type: "section", Text: &slackText{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*Total Cost:* $%.2f\n*Period:* %s", summary.TotalCost, summary.Period),
		}},
	}

	if len(summary.ServiceCosts) > 0 {
		var b strings.Builder
		b.WriteString("*Top Services:*\n")
		for i, sc := range summary.ServiceCosts {
			if i >= s.topServices {
				break
			}
			fmt.Fprintf(&b, "• %s: $%.2f\n", sc.Service, sc.Cost)
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: b.String()},
		})
	}

	return slackMessage{Blocks: blocks}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
