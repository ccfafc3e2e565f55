package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

const metricUnblendedCost = "UnblendedCost"

// DefaultMinCost drops services whose month-to-date spend rounds to nothing.
const DefaultMinCost = 0.01

// CostExplorerAPI is the subset of the Cost Explorer client used by the
// Retriever. The concrete *costexplorer.Client satisfies it; tests inject a
// double.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// APIError reports a failed or malformed Cost Explorer response.
type APIError struct {
	Query string // "total" or "by-service"
	Err   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cost explorer %s query: %v", e.Query, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retriever fetches month-to-date cost data and aggregates it per service.
type Retriever struct {
	api     CostExplorerAPI
	minCost float64
	logger  *slog.Logger
}

// NewRetriever creates a retriever backed by the given Cost Explorer client.
// A non-positive minCost falls back to DefaultMinCost.
func NewRetriever(api CostExplorerAPI, minCost float64, logger *slog.Logger) *Retriever {
	if minCost <= 0 {
		minCost = DefaultMinCost
	}
	return &Retriever{
		api:     api,
		minCost: minCost,
		logger:  logger,
	}
}

// Retrieve queries the unblended cost for the period, once unaggregated and
// once grouped by service, and reduces both into a Summary. Services at or
// below the cost floor are dropped; the rest are sorted by cost descending,
// ties keeping the API order. An empty result set is not an error: it yields
// a zero total and no services.
func (r *Retriever) Retrieve(ctx context.Context, period Period) (*Summary, error) {
	interval := &cetypes.DateInterval{
		Start: aws.String(period.StartDate()),
		End:   aws.String(period.EndDate()),
	}

	totalOut, err := r.api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  interval,
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{metricUnblendedCost},
	})
	if err != nil {
		return nil, &APIError{Query: "total", Err: err}
	}

	var totalCost float64
	if len(totalOut.ResultsByTime) > 0 {
		totalCost, err = metricAmount(totalOut.ResultsByTime[0].Total)
		if err != nil {
			return nil, &APIError{Query: "total", Err: err}
		}
	}

	serviceOut, err := r.api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  interval,
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{metricUnblendedCost},
		GroupBy: []cetypes.GroupDefinition{{
			Type: cetypes.GroupDefinitionTypeDimension,
			Key:  aws.String("SERVICE"),
		}},
	})
	if err != nil {
		return nil, &APIError{Query: "by-service", Err: err}
	}

	var services []ServiceCost
	if len(serviceOut.ResultsByTime) > 0 {
		for _, group := range serviceOut.ResultsByTime[0].Groups {
			if len(group.Keys) == 0 {
				return nil, &APIError{Query: "by-service", Err: errors.New("group has no keys")}
			}
			cost, err := metricAmount(group.Metrics)
			if err != nil {
				return nil, &APIError{Query: "by-service", Err: err}
			}
			if cost > r.minCost {
				services = append(services, ServiceCost{Service: group.Keys[0], Cost: cost})
			}
		}
	}

	sort.SliceStable(services, func(i, j int) bool {
		return services[i].Cost > services[j].Cost
	})

	r.logger.Info("billing data retrieved",
		"period", period.String(),
		"total_cost", totalCost,
		"services", len(services),
	)

	return &Summary{
		TotalCost:    totalCost,
		ServiceCosts: services,
		Period:       period.String(),
	}, nil
}

func metricAmount(metrics map[string]cetypes.MetricValue) (float64, error) {
	mv, ok := metrics[metricUnblendedCost]
	if !ok || mv.Amount == nil {
		return 0, fmt.Errorf("response missing %s amount", metricUnblendedCost)
	}
	amount, err := strconv.ParseFloat(*mv.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s amount: %w", metricUnblendedCost, err)
	}
	return amount, nil
}
