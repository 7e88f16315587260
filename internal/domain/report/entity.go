package report

import (
	"strings"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// Unassigned is the department/designation used when an employee has none.
const Unassigned = "Unassigned"

type Status string

const (
	StatusPresent      Status = "PRESENT"
	StatusAbsent       Status = "ABSENT"
	StatusLate         Status = "LATE"
	StatusEarlyLeave   Status = "EARLY_LEAVE"
	StatusMissingPunch Status = "MISSING_PUNCH"
)

// Label returns the human readable form used in report cells.
func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	case StatusLate:
		return "Late"
	case StatusEarlyLeave:
		return "Early Leave"
	case StatusMissingPunch:
		return "Missing Punch"
	default:
		return string(s)
	}
}

// IsPresent reports whether the day counts toward present days.
func (s Status) IsPresent() bool {
	return s == StatusPresent || s == StatusLate || s == StatusEarlyLeave
}

// Event is a validated punch as seen by the session builder.
type Event struct {
	EmployeeID string
	Type       attendance.PunchType
	Time       time.Time
}

type Session struct {
	EmployeeID string
	Date       time.Time
	In         *time.Time
	Out        *time.Time

	// Mislabeled is set when the opening punch was labelled OUT or the
	// closing punch was labelled IN.
	Mislabeled bool
}

func (s Session) Complete() bool {
	return s.In != nil && s.Out != nil
}

type ShiftPolicy struct {
	ShiftStart             time.Duration // offset from local midnight
	ShiftEnd               time.Duration // offset from local midnight
	LateGraceMinutes       int
	EarlyLeaveGraceMinutes int
	StandardDailyHours     decimal.Decimal
	WeekendDays            []time.Weekday
}

func (p ShiftPolicy) IsWeekend(day time.Weekday) bool {
	for _, w := range p.WeekendDays {
		if w == day {
			return true
		}
	}
	return false
}

// LateThreshold is the latest on-time arrival for the given local date.
func (p ShiftPolicy) LateThreshold(date time.Time) time.Time {
	return atOffset(date, p.ShiftStart).Add(time.Duration(p.LateGraceMinutes) * time.Minute)
}

// EarlyThreshold is the earliest on-time departure for the given local date.
func (p ShiftPolicy) EarlyThreshold(date time.Time) time.Time {
	return atOffset(date, p.ShiftEnd).Add(-time.Duration(p.EarlyLeaveGraceMinutes) * time.Minute)
}

func atOffset(date time.Time, offset time.Duration) time.Time {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return midnight.Add(offset)
}

type DayRecord struct {
	EmployeeID    string
	Date          time.Time
	Sessions      []Session
	WorkedHours   decimal.Decimal
	Status        Status
	LateMinutes   int
	EarlyMinutes  int
	LabelMismatch bool
}

// FirstIn returns the opening time of the first session, if any.
func (d DayRecord) FirstIn() *time.Time {
	if len(d.Sessions) == 0 {
		return nil
	}
	return d.Sessions[0].In
}

// LastOut returns the closing time of the last completed session, if any.
func (d DayRecord) LastOut() *time.Time {
	for i := len(d.Sessions) - 1; i >= 0; i-- {
		if d.Sessions[i].Out != nil {
			return d.Sessions[i].Out
		}
	}
	return nil
}

// HasOpenSession reports whether the last session is still waiting for an OUT.
func (d DayRecord) HasOpenSession() bool {
	if len(d.Sessions) == 0 {
		return false
	}
	return d.Sessions[len(d.Sessions)-1].Out == nil
}

type SummaryRecord struct {
	EmployeeID         string
	PresentDays        int
	AbsentDays         int
	MissingPunchDays   int
	LateDays           int
	EarlyLeaveDays     int
	TotalHours         decimal.Decimal
	AverageHoursPerDay decimal.Decimal
	OvertimeHours      decimal.Decimal
}

type EmployeeRef struct {
	ID          string
	Name        string
	Code        string
	Department  string
	Designation string
}

// NewEmployeeRef builds an EmployeeRef, replacing a missing department or
// designation with Unassigned.
func NewEmployeeRef(id, name, code string, department, designation *string) EmployeeRef {
	return EmployeeRef{
		ID:          id,
		Name:        name,
		Code:        code,
		Department:  orUnassigned(department),
		Designation: orUnassigned(designation),
	}
}

func orUnassigned(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Unassigned
	}
	return strings.TrimSpace(*s)
}
