package report

import (
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

var hourNanos = decimal.NewFromInt(int64(time.Hour))

// WorkedHours returns the length of a completed session in hours. Open
// sessions and sessions whose Out precedes In count as zero.
func WorkedHours(s report.Session) decimal.Decimal {
	if !s.Complete() {
		return decimal.Zero
	}
	d := s.Out.Sub(*s.In)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(d.Nanoseconds()).Div(hourNanos)
}

// DayHours sums WorkedHours over sessions.
func DayHours(sessions []report.Session) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sessions {
		total = total.Add(WorkedHours(s))
	}
	return total
}
