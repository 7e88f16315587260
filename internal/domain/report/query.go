package report

import (
	"time"
)

// ReportQuery carries everything the pipeline needs for one request. It is a
// value type: fields are unexported and the With* methods return copies.
type ReportQuery struct {
	companyID   string
	from        time.Time
	to          time.Time
	loc         *time.Location
	department  string
	designation string
	columns     []time.Time
}

// NewReportQuery builds a query over the inclusive local date range [from, to].
// Both bounds are truncated to local midnight in loc.
func NewReportQuery(companyID string, from, to time.Time, loc *time.Location) ReportQuery {
	if loc == nil {
		loc = time.UTC
	}
	return ReportQuery{
		companyID: companyID,
		from:      localMidnight(from, loc),
		to:        localMidnight(to, loc),
		loc:       loc,
	}
}

func (q ReportQuery) CompanyID() string        { return q.companyID }
func (q ReportQuery) From() time.Time          { return q.from }
func (q ReportQuery) To() time.Time            { return q.to }
func (q ReportQuery) Location() *time.Location { return q.loc }
func (q ReportQuery) Department() string       { return q.department }
func (q ReportQuery) Designation() string      { return q.designation }

func (q ReportQuery) WithDepartment(department string) ReportQuery {
	q.department = department
	return q
}

func (q ReportQuery) WithDesignation(designation string) ReportQuery {
	q.designation = designation
	return q
}

// WithTo returns a copy whose range ends at to.
func (q ReportQuery) WithTo(to time.Time) ReportQuery {
	q.to = localMidnight(to, q.loc)
	return q
}

// WithColumns sets the day columns used by grid layouts. The slice is copied.
func (q ReportQuery) WithColumns(days []time.Time) ReportQuery {
	cols := make([]time.Time, len(days))
	for i, d := range days {
		cols[i] = localMidnight(d, q.loc)
	}
	q.columns = cols
	return q
}

// Days lists every local calendar day in the range. It is empty when from is
// after to.
func (q ReportQuery) Days() []time.Time {
	return daysBetween(q.from, q.to, q.loc)
}

// Columns returns the grid columns, defaulting to Days.
func (q ReportQuery) Columns() []time.Time {
	if q.columns == nil {
		return q.Days()
	}
	cols := make([]time.Time, len(q.columns))
	copy(cols, q.columns)
	return cols
}

// Bounds returns the half-open instant range [start, end) covering the query.
func (q ReportQuery) Bounds() (time.Time, time.Time) {
	y, m, d := q.to.Date()
	return q.from, time.Date(y, m, d+1, 0, 0, 0, 0, q.loc)
}

// DateKey formats a date as the key used to group punches by local day.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthDays lists every calendar day of the given month in loc.
func MonthDays(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return daysBetween(first, last, loc)
}

func daysBetween(from, to time.Time, loc *time.Location) []time.Time {
	days := []time.Time{}
	if from.After(to) {
		return days
	}
	y, m, d := from.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if day.After(to) {
			break
		}
		days = append(days, day)
	}
	return days
}

func localMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
