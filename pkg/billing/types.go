package billing

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Period is a half-open [Start, End) billing window.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthToDate returns the billing period from the first day of the current
// month through today. Cost Explorer works with UTC calendar dates, so the
// window is computed in UTC regardless of the host timezone.
func MonthToDate(now time.Time) Period {
	now = now.UTC()
	return Period{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// StartDate formats the period start as a Cost Explorer date.
func (p Period) StartDate() string { return p.Start.Format(dateLayout) }

// EndDate formats the period end as a Cost Explorer date.
func (p Period) EndDate() string { return p.End.Format(dateLayout) }

// String renders the period the way it appears in notifications.
func (p Period) String() string {
	return fmt.Sprintf("%s to %s", p.StartDate(), p.EndDate())
}

// ServiceCost is the month-to-date unblended cost of a single AWS service.
type ServiceCost struct {
	Service string  `json:"service"`
	Cost    float64 `json:"cost"`
}

// Summary aggregates one billing period for notification.
type Summary struct {
	TotalCost    float64       `json:"total_cost"`
	ServiceCosts []ServiceCost `json:"service_costs"`
	Period       string        `json:"period"`
}
