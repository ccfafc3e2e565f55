package alerts

import (
	"context"
	"fmt"

	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

// Notifier delivers a billing summary to an external system.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers the summary. Implementations must be safe for concurrent use.
	Send(ctx context.Context, summary billing.Summary) error
}

// DeliveryError reports a failed webhook delivery. Status is set when the
// endpoint answered with a non-200 code, zero when the request itself failed.
type DeliveryError struct {
	Notifier string
	Status   int
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Webhook failed with status %d", e.Status)
	}
	return fmt.Sprintf("send %s notification: %v", e.Notifier, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
