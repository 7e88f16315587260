package report

import (
	"fmt"
	"time"

	"github.com/geopunch/attendance-backend/internal/pkg/validator"
)

// MaxRangeDays bounds custom range reports.
const MaxRangeDays = 366

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var validFormats = []string{string(FormatJSON), string(FormatXLSX), string(FormatCSV)}

// ScopeFilter narrows the employees in scope. "ALL" or empty means no filter.
type ScopeFilter struct {
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
}

func (f ScopeFilter) apply(q ReportQuery) ReportQuery {
	if f.Department != "" && f.Department != "ALL" {
		q = q.WithDepartment(f.Department)
	}
	if f.Designation != "" && f.Designation != "ALL" {
		q = q.WithDesignation(f.Designation)
	}
	return q
}

// ========================================
// DAILY REPORT
// ========================================

type DailyReportRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	ScopeFilter
}

func (r *DailyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Query converts the request into a single-day ReportQuery.
func (r DailyReportRequest) Query(companyID string, loc *time.Location) ReportQuery {
	date, _ := time.ParseInLocation("2006-01-02", r.Date, loc)
	return r.apply(NewReportQuery(companyID, date, date, loc))
}

// ========================================
// MONTHLY / MASTER / PAYROLL REPORTS
// ========================================

type PeriodReportRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	ScopeFilter
}

func (r *PeriodReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2020 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Query converts the request into a month query whose range stops at today
// for the current month. Grid columns always cover the whole month.
func (r PeriodReportRequest) Query(companyID string, loc *time.Location, now time.Time) ReportQuery {
	days := MonthDays(r.Year, time.Month(r.Month), loc)
	first := days[0]
	last := days[len(days)-1]

	q := NewReportQuery(companyID, first, last, loc).WithColumns(days)
	today := now.In(loc)
	if today.Before(last) {
		// future days are not classified; a fully future month yields an empty range
		q = q.WithTo(today)
	}
	return r.apply(q)
}

// ========================================
// CUSTOM RANGE REPORTS (late/early, absence)
// ========================================

type RangeReportRequest struct {
	From string `json:"from"` // YYYY-MM-DD
	To   string `json:"to"`   // YYYY-MM-DD
	ScopeFilter
}

func (r *RangeReportRequest) Validate() error {
	var errs validator.ValidationErrors

	from, fromValid := validator.IsValidDate(r.From)
	if validator.IsEmpty(r.From) {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from is required",
		})
	} else if !fromValid {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}

	to, toValid := validator.IsValidDate(r.To)
	if validator.IsEmpty(r.To) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to is required",
		})
	} else if !toValid {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if fromValid && toValid {
		if from.After(to) {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must not be before from",
			})
		} else if to.Sub(from) > time.Duration(MaxRangeDays-1)*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: fmt.Sprintf("range must not exceed %d days", MaxRangeDays),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r RangeReportRequest) Query(companyID string, loc *time.Location) ReportQuery {
	from, _ := time.ParseInLocation("2006-01-02", r.From, loc)
	to, _ := time.ParseInLocation("2006-01-02", r.To, loc)
	return r.apply(NewReportQuery(companyID, from, to, loc))
}

// ParseFormat validates an output format, defaulting to JSON.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatJSON, nil
	}
	if !validator.IsInSlice(s, validFormats) {
		return "", validator.ValidationErrors{{
			Field:   "format",
			Message: "format must be one of: json, xlsx, csv",
		}}
	}
	return Format(s), nil
}
