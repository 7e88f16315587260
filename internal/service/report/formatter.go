package report

import (
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/report"
)

const (
	TitleDaily     = "Daily Attendance"
	TitleMonthly   = "Monthly Summary"
	TitleMaster    = "Master Attendance"
	TitlePayroll   = "Payroll"
	TitleLateEarly = "Late & Early"
	TitleAbsence   = "Absence & Missing Punch"
)

// Absence report issues.
const (
	IssueAbsent        = "Absent"
	IssueMissingPunch  = "Missing Punch"
	IssueLabelMismatch = "Punch Label Mismatch"
)

const (
	absentMark = "A"
	noTime     = "-"
	rangeSep   = "–"
)

// DailyTable renders Name, Status, IN, OUT for the first day of the set.
func DailyTable(set DayRecordSet) report.Table {
	table := report.NewTable(TitleDaily, report.HeaderCells("Name", "Status", "IN", "OUT"))
	table.SkippedPunches = set.Skipped
	if len(set.Days) == 0 {
		return table
	}

	for _, e := range set.Employees {
		records := set.For(e.ID)
		if len(records) == 0 {
			continue
		}
		r := records[0]
		table.Rows = append(table.Rows, []report.Cell{
			report.TextCell(e.Name),
			report.TextCell(r.Status.Label()),
			report.TextCell(clock(r.FirstIn())),
			report.TextCell(clock(r.LastOut())),
		})
	}
	return table
}

// MonthlyTable renders the per-employee period summary.
func MonthlyTable(set DayRecordSet, policy report.ShiftPolicy) report.Table {
	table := report.NewTable(TitleMonthly, report.HeaderCells("Name", "Code", "PresentDays", "AbsentDays", "AvgHoursPerDay"))
	table.SkippedPunches = set.Skipped
	if len(set.Days) == 0 {
		return table
	}

	for _, e := range set.Employees {
		s := Summarize(e.ID, set.For(e.ID), policy)
		table.Rows = append(table.Rows, []report.Cell{
			report.TextCell(e.Name),
			report.TextCell(e.Code),
			report.IntCell(s.PresentDays),
			report.IntCell(s.AbsentDays),
			report.HoursCell(s.AverageHoursPerDay),
		})
	}
	return table
}

// MasterGrid renders one row per employee and one column per entry of
// columns. Columns without a record (days outside the computed range) stay
// blank. Weekend columns are highlighted in header and body.
func MasterGrid(set DayRecordSet, columns []time.Time, policy report.ShiftPolicy) report.Table {
	header := []report.Cell{report.TextCell("Name")}
	for _, day := range columns {
		header = append(header, report.TextCell(day.Format("02")).Highlighted(policy.IsWeekend(day.Weekday())))
	}
	header = append(header, report.TextCell("TotalHours"), report.TextCell("Overtime"))

	table := report.NewTable(TitleMaster, header)
	table.SkippedPunches = set.Skipped
	if len(columns) == 0 || len(set.Days) == 0 {
		return table
	}

	for _, e := range set.Employees {
		records := set.For(e.ID)
		byDay := make(map[string]report.DayRecord, len(records))
		for _, r := range records {
			byDay[report.DateKey(r.Date)] = r
		}

		row := []report.Cell{report.TextCell(e.Name)}
		for _, day := range columns {
			text := ""
			if r, ok := byDay[report.DateKey(day)]; ok {
				text = gridCell(r)
			}
			row = append(row, report.TextCell(text).Highlighted(policy.IsWeekend(day.Weekday())))
		}

		s := Summarize(e.ID, records, policy)
		row = append(row, report.HoursCell(s.TotalHours), report.HoursCell(s.OvertimeHours))
		table.Rows = append(table.Rows, row)
	}
	return table
}

// PayrollTable renders working days, hours and overtime per employee.
func PayrollTable(set DayRecordSet, policy report.ShiftPolicy) report.Table {
	table := report.NewTable(TitlePayroll, report.HeaderCells("Name", "Code", "Department", "WorkingDays", "TotalHours", "OvertimeHours"))
	table.SkippedPunches = set.Skipped
	if len(set.Days) == 0 {
		return table
	}

	for _, e := range set.Employees {
		s := Summarize(e.ID, set.For(e.ID), policy)
		table.Rows = append(table.Rows, []report.Cell{
			report.TextCell(e.Name),
			report.TextCell(e.Code),
			report.TextCell(e.Department),
			report.IntCell(s.PresentDays),
			report.HoursCell(s.TotalHours),
			report.HoursCell(s.OvertimeHours),
		})
	}
	return table
}

// LateEarlyTable lists every employee-day with late or early minutes.
func LateEarlyTable(set DayRecordSet) report.Table {
	table := report.NewTable(TitleLateEarly, report.HeaderCells("Name", "Code", "Date", "Type", "LateMinutes", "EarlyMinutes"))
	table.SkippedPunches = set.Skipped

	for _, e := range set.Employees {
		for _, r := range set.For(e.ID) {
			kind := lateEarlyType(r)
			if kind == "" {
				continue
			}
			table.Rows = append(table.Rows, []report.Cell{
				report.TextCell(e.Name),
				report.TextCell(e.Code),
				report.TextCell(report.DateKey(r.Date)),
				report.TextCell(kind),
				report.IntCell(r.LateMinutes),
				report.IntCell(r.EarlyMinutes),
			})
		}
	}
	return table
}

// AbsenceTable lists absent days, missing-punch days and days whose punch
// labels did not alternate. A day can appear once per issue.
func AbsenceTable(set DayRecordSet, policy report.ShiftPolicy) report.Table {
	table := report.NewTable(TitleAbsence, report.HeaderCells("Name", "Code", "Date", "Issue"))
	table.SkippedPunches = set.Skipped

	for _, e := range set.Employees {
		for _, r := range set.For(e.ID) {
			weekend := policy.IsWeekend(r.Date.Weekday())
			for _, issue := range issues(r) {
				table.Rows = append(table.Rows, []report.Cell{
					report.TextCell(e.Name),
					report.TextCell(e.Code),
					report.TextCell(report.DateKey(r.Date)).Highlighted(weekend),
					report.TextCell(issue),
				})
			}
		}
	}
	return table
}

func issues(r report.DayRecord) []string {
	var out []string
	switch r.Status {
	case report.StatusAbsent:
		out = append(out, IssueAbsent)
	case report.StatusMissingPunch:
		out = append(out, IssueMissingPunch)
	}
	if r.LabelMismatch {
		out = append(out, IssueLabelMismatch)
	}
	return out
}

func lateEarlyType(r report.DayRecord) string {
	switch {
	case r.LateMinutes > 0 && r.EarlyMinutes > 0:
		return "Late & Early Leave"
	case r.LateMinutes > 0:
		return report.StatusLate.Label()
	case r.EarlyMinutes > 0:
		return report.StatusEarlyLeave.Label()
	default:
		return ""
	}
}

// gridCell renders "HH:mm–HH:mm" from first In to last Out, "HH:mm–" while
// the last session is open, and "A" for an absent day.
func gridCell(r report.DayRecord) string {
	if r.Status == report.StatusAbsent {
		return absentMark
	}
	in := r.FirstIn()
	if in == nil {
		return ""
	}
	if r.HasOpenSession() {
		return clock(in) + rangeSep
	}
	return clock(in) + rangeSep + clock(r.LastOut())
}

func clock(t *time.Time) string {
	if t == nil {
		return noTime
	}
	return t.Format("15:04")
}
