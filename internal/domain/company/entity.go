package company

import (
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

type Company struct {
	ID        string
	OwnerID   string
	Name      string
	Username  string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Shift policy overrides. Nil falls back to the configured default.
	ShiftStartMinutes      *int
	ShiftEndMinutes        *int
	LateGraceMinutes       *int
	EarlyLeaveGraceMinutes *int
	StandardDailyHours     *decimal.Decimal
	WeekendDays            []int32
}

// EffectivePolicy overlays the company's overrides on defaults.
func (c Company) EffectivePolicy(defaults report.ShiftPolicy) report.ShiftPolicy {
	p := defaults
	if c.ShiftStartMinutes != nil {
		p.ShiftStart = time.Duration(*c.ShiftStartMinutes) * time.Minute
	}
	if c.ShiftEndMinutes != nil {
		p.ShiftEnd = time.Duration(*c.ShiftEndMinutes) * time.Minute
	}
	if c.LateGraceMinutes != nil {
		p.LateGraceMinutes = *c.LateGraceMinutes
	}
	if c.EarlyLeaveGraceMinutes != nil {
		p.EarlyLeaveGraceMinutes = *c.EarlyLeaveGraceMinutes
	}
	if c.StandardDailyHours != nil {
		p.StandardDailyHours = *c.StandardDailyHours
	}
	if c.WeekendDays != nil {
		days := make([]time.Weekday, 0, len(c.WeekendDays))
		for _, d := range c.WeekendDays {
			days = append(days, time.Weekday(d))
		}
		p.WeekendDays = days
	}
	return p
}
