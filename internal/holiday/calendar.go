package holiday

import (
	"context"
	"time"
)

// Calendar computes working-day counts for a company, excluding weekends
// and company holidays.
type Calendar struct {
	repo Repository
}

func NewCalendar(repo Repository) *Calendar {
	return &Calendar{repo: repo}
}

// BusinessDays counts the working days in [start, end] inclusive. Dates are
// compared at day granularity; time-of-day is ignored.
func (c *Calendar) BusinessDays(ctx context.Context, companyID string, start, end time.Time) (float64, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)

	holidays, err := c.repo.ListBetween(ctx, companyID, start, end)
	if err != nil {
		return 0, err
	}

	holidaySet := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		holidaySet[truncateToDay(h.Date).Format("2006-01-02")] = struct{}{}
	}

	days := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, isHoliday := holidaySet[d.Format("2006-01-02")]; isHoliday {
			continue
		}
		days++
	}

	return days, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
