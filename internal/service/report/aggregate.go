package report

import (
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// DayRecordSet is the per-request output of BuildDayRecords: one record per
// employee in scope per calendar day of the query.
type DayRecordSet struct {
	Employees []report.EmployeeRef
	Days      []time.Time
	// Records holds one record per entry of Days, keyed by employee ID.
	Records map[string][]report.DayRecord
	// Skipped counts malformed punches of in-scope employees.
	Skipped int
}

// For returns the records of one employee in day order.
func (s DayRecordSet) For(employeeID string) []report.DayRecord {
	return s.Records[employeeID]
}

// InScope keeps the employees matching the query's department and
// designation filters.
func InScope(query report.ReportQuery, employees []report.EmployeeRef) []report.EmployeeRef {
	scoped := make([]report.EmployeeRef, 0, len(employees))
	for _, e := range employees {
		if query.Department() != "" && e.Department != query.Department() {
			continue
		}
		if query.Designation() != "" && e.Designation != query.Designation() {
			continue
		}
		scoped = append(scoped, e)
	}
	return scoped
}

// BuildDayRecords groups punches by employee and local calendar day, builds
// sessions and classifies every employee-day in the query range.
//
// Punches with no timestamp, no employee ID or an unknown type are skipped
// and counted. Punches of employees outside the scope, or outside the
// range, are ignored without counting.
func BuildDayRecords(query report.ReportQuery, employees []report.EmployeeRef, punches []attendance.Punch, policy report.ShiftPolicy) DayRecordSet {
	loc := query.Location()
	scoped := InScope(query, employees)
	days := query.Days()

	set := DayRecordSet{
		Employees: scoped,
		Days:      days,
		Records:   make(map[string][]report.DayRecord, len(scoped)),
	}

	inScope := make(map[string]struct{}, len(scoped))
	for _, e := range scoped {
		inScope[e.ID] = struct{}{}
	}

	events := make(map[string]map[string][]report.Event, len(scoped))
	for _, p := range punches {
		if p.EmployeeID == "" || p.PunchTime == nil || !p.Type.Valid() {
			if _, ok := inScope[p.EmployeeID]; ok || p.EmployeeID == "" {
				set.Skipped++
			}
			continue
		}
		if _, ok := inScope[p.EmployeeID]; !ok {
			continue
		}

		local := p.PunchTime.In(loc)
		key := report.DateKey(local)
		byDay, ok := events[p.EmployeeID]
		if !ok {
			byDay = make(map[string][]report.Event)
			events[p.EmployeeID] = byDay
		}
		byDay[key] = append(byDay[key], report.Event{
			EmployeeID: p.EmployeeID,
			Type:       p.Type,
			Time:       local,
		})
	}

	for _, e := range scoped {
		records := make([]report.DayRecord, 0, len(days))
		for _, day := range days {
			sessions := BuildSessions(events[e.ID][report.DateKey(day)])
			c := Classify(day, sessions, policy, loc)
			records = append(records, report.DayRecord{
				EmployeeID:    e.ID,
				Date:          day,
				Sessions:      sessions,
				WorkedHours:   DayHours(sessions),
				Status:        c.Status,
				LateMinutes:   c.LateMinutes,
				EarlyMinutes:  c.EarlyMinutes,
				LabelMismatch: c.LabelMismatch,
			})
		}
		set.Records[e.ID] = records
	}

	return set
}

// Summarize folds an employee's day records into period totals. The fold is
// commutative so record order does not matter.
func Summarize(employeeID string, records []report.DayRecord, policy report.ShiftPolicy) report.SummaryRecord {
	summary := report.SummaryRecord{
		EmployeeID:         employeeID,
		TotalHours:         decimal.Zero,
		AverageHoursPerDay: decimal.Zero,
		OvertimeHours:      decimal.Zero,
	}

	for _, r := range records {
		switch r.Status {
		case report.StatusAbsent:
			summary.AbsentDays++
		case report.StatusMissingPunch:
			summary.MissingPunchDays++
		case report.StatusLate:
			summary.LateDays++
		case report.StatusEarlyLeave:
			summary.EarlyLeaveDays++
		}
		if r.Status.IsPresent() {
			summary.PresentDays++
		}
		summary.TotalHours = summary.TotalHours.Add(r.WorkedHours)
	}

	present := decimal.NewFromInt(int64(summary.PresentDays))
	if summary.PresentDays > 0 {
		summary.AverageHoursPerDay = summary.TotalHours.Div(present)
	}

	overtime := summary.TotalHours.Sub(present.Mul(policy.StandardDailyHours))
	if overtime.IsPositive() {
		summary.OvertimeHours = overtime
	}

	return summary
}
