package company

import (
	"fmt"
	"strings"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CompanyResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"company_name"`
	Username  string    `json:"company_username"`
	Address   *string   `json:"company_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCompanyRequest struct {
	Name     string  `json:"company_name"`
	Username string  `json:"company_username"`
	Address  *string `json:"company_address,omitempty"`
}

func (r *CreateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_name",
			Message: "company_name is required",
		})
	} else if len(r.Name) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "company_name",
			Message: "company_name must not exceed 255 characters",
		})
	}

	if validator.IsEmpty(r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_username",
			Message: "company_username is required",
		})
	} else if !validator.IsValidCompanyUsername(r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_username",
			Message: ErrInvalidCompanyUsernameFormat.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateCompanyRequest struct {
	Name    *string `json:"company_name,omitempty"`
	Address *string `json:"company_address,omitempty"`
}

func (r *UpdateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		if validator.IsEmpty(*r.Name) {
			errs = append(errs, validator.ValidationError{
				Field:   "company_name",
				Message: ErrInvalidCompanyName.Error(),
			})
		} else if len(*r.Name) > 255 {
			errs = append(errs, validator.ValidationError{
				Field:   "company_name",
				Message: "company_name must not exceed 255 characters",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// SHIFT POLICY DTOs
// ========================================

// ShiftPolicyResponse shows the effective policy and which fields the
// company overrides.
type ShiftPolicyResponse struct {
	ShiftStart             string   `json:"shift_start"` // HH:MM
	ShiftEnd               string   `json:"shift_end"`   // HH:MM
	LateGraceMinutes       int      `json:"late_grace_minutes"`
	EarlyLeaveGraceMinutes int      `json:"early_leave_grace_minutes"`
	StandardDailyHours     string   `json:"standard_daily_hours"`
	WeekendDays            []string `json:"weekend_days"`
	Overridden             []string `json:"overridden"`
}

// NewShiftPolicyResponse renders the effective policy of c over defaults.
func NewShiftPolicyResponse(c Company, defaults report.ShiftPolicy) ShiftPolicyResponse {
	p := c.EffectivePolicy(defaults)

	weekend := make([]string, 0, len(p.WeekendDays))
	for _, d := range p.WeekendDays {
		weekend = append(weekend, d.String())
	}

	overridden := []string{}
	if c.ShiftStartMinutes != nil {
		overridden = append(overridden, "shift_start")
	}
	if c.ShiftEndMinutes != nil {
		overridden = append(overridden, "shift_end")
	}
	if c.LateGraceMinutes != nil {
		overridden = append(overridden, "late_grace_minutes")
	}
	if c.EarlyLeaveGraceMinutes != nil {
		overridden = append(overridden, "early_leave_grace_minutes")
	}
	if c.StandardDailyHours != nil {
		overridden = append(overridden, "standard_daily_hours")
	}
	if c.WeekendDays != nil {
		overridden = append(overridden, "weekend_days")
	}

	return ShiftPolicyResponse{
		ShiftStart:             FormatClock(p.ShiftStart),
		ShiftEnd:               FormatClock(p.ShiftEnd),
		LateGraceMinutes:       p.LateGraceMinutes,
		EarlyLeaveGraceMinutes: p.EarlyLeaveGraceMinutes,
		StandardDailyHours:     p.StandardDailyHours.StringFixed(2),
		WeekendDays:            weekend,
		Overridden:             overridden,
	}
}

// UpdateShiftPolicyRequest replaces the company's overrides. A null field
// falls back to the configured default.
type UpdateShiftPolicyRequest struct {
	ShiftStart             *string          `json:"shift_start,omitempty"` // HH:MM
	ShiftEnd               *string          `json:"shift_end,omitempty"`   // HH:MM
	LateGraceMinutes       *int             `json:"late_grace_minutes,omitempty"`
	EarlyLeaveGraceMinutes *int             `json:"early_leave_grace_minutes,omitempty"`
	StandardDailyHours     *decimal.Decimal `json:"standard_daily_hours,omitempty"`
	WeekendDays            []string         `json:"weekend_days,omitempty"`
}

// ShiftPolicyOverrides is the validated, storable form of UpdateShiftPolicyRequest.
type ShiftPolicyOverrides struct {
	ShiftStartMinutes      *int
	ShiftEndMinutes        *int
	LateGraceMinutes       *int
	EarlyLeaveGraceMinutes *int
	StandardDailyHours     *decimal.Decimal
	WeekendDays            []int32
}

// Overrides validates the request and converts it for storage.
func (r *UpdateShiftPolicyRequest) Overrides() (ShiftPolicyOverrides, error) {
	var errs validator.ValidationErrors
	var o ShiftPolicyOverrides

	if r.ShiftStart != nil {
		m, ok := ParseClock(*r.ShiftStart)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "shift_start",
				Message: "shift_start must be in HH:MM format",
			})
		}
		o.ShiftStartMinutes = &m
	}

	if r.ShiftEnd != nil {
		m, ok := ParseClock(*r.ShiftEnd)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "shift_end",
				Message: "shift_end must be in HH:MM format",
			})
		}
		o.ShiftEndMinutes = &m
	}

	if o.ShiftStartMinutes != nil && o.ShiftEndMinutes != nil && len(errs) == 0 &&
		*o.ShiftEndMinutes <= *o.ShiftStartMinutes {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_end",
			Message: ErrInvalidShiftWindow.Error(),
		})
	}

	if r.LateGraceMinutes != nil {
		if *r.LateGraceMinutes < 0 || *r.LateGraceMinutes > 240 {
			errs = append(errs, validator.ValidationError{
				Field:   "late_grace_minutes",
				Message: "late_grace_minutes must be between 0 and 240",
			})
		}
		o.LateGraceMinutes = r.LateGraceMinutes
	}

	if r.EarlyLeaveGraceMinutes != nil {
		if *r.EarlyLeaveGraceMinutes < 0 || *r.EarlyLeaveGraceMinutes > 240 {
			errs = append(errs, validator.ValidationError{
				Field:   "early_leave_grace_minutes",
				Message: "early_leave_grace_minutes must be between 0 and 240",
			})
		}
		o.EarlyLeaveGraceMinutes = r.EarlyLeaveGraceMinutes
	}

	if r.StandardDailyHours != nil {
		h := *r.StandardDailyHours
		if !h.IsPositive() || h.GreaterThan(decimal.NewFromInt(24)) {
			errs = append(errs, validator.ValidationError{
				Field:   "standard_daily_hours",
				Message: "standard_daily_hours must be greater than 0 and at most 24",
			})
		}
		o.StandardDailyHours = r.StandardDailyHours
	}

	if r.WeekendDays != nil {
		days := make([]int32, 0, len(r.WeekendDays))
		for _, name := range r.WeekendDays {
			d, ok := ParseWeekday(name)
			if !ok {
				errs = append(errs, validator.ValidationError{
					Field:   "weekend_days",
					Message: fmt.Sprintf("unknown weekday %q", name),
				})
				continue
			}
			days = append(days, int32(d))
		}
		o.WeekendDays = days
	}

	if len(errs) > 0 {
		return ShiftPolicyOverrides{}, errs
	}
	return o, nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// FormatClock renders an offset from midnight as "HH:MM".
func FormatClock(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWeekday accepts full or three-letter English day names, any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}
