package report

import (
	"math/rand"
	"testing"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func testPolicy() report.ShiftPolicy {
	return report.ShiftPolicy{
		ShiftStart:             9 * time.Hour,
		ShiftEnd:               18 * time.Hour,
		LateGraceMinutes:       10,
		EarlyLeaveGraceMinutes: 10,
		StandardDailyHours:     decimal.NewFromInt(8),
		WeekendDays:            []time.Weekday{time.Saturday, time.Sunday},
	}
}

// at returns a local IST time on 2024-03-04 (a Monday) unless day is given.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, ist)
}

func ptr(t time.Time) *time.Time { return &t }

func punch(emp string, typ attendance.PunchType, t time.Time) attendance.Punch {
	utc := t.UTC()
	return attendance.Punch{EmployeeID: emp, Type: typ, PunchTime: &utc}
}

func TestBuildSessions_PairsBySortedTime(t *testing.T) {
	events := []report.Event{
		{EmployeeID: "e1", Type: attendance.PunchOut, Time: at(4, 13, 0)},
		{EmployeeID: "e1", Type: attendance.PunchIn, Time: at(4, 9, 0)},
		{EmployeeID: "e1", Type: attendance.PunchIn, Time: at(4, 14, 0)},
	}

	sessions := BuildSessions(events)

	require.Len(t, sessions, 2)
	assert.Equal(t, at(4, 9, 0), *sessions[0].In)
	assert.Equal(t, at(4, 13, 0), *sessions[0].Out)
	assert.False(t, sessions[0].Mislabeled)
	assert.Equal(t, at(4, 14, 0), *sessions[1].In)
	assert.Nil(t, sessions[1].Out)
	assert.Equal(t, at(4, 9, 0), events[1].Time, "input must not be reordered")
}

func TestBuildSessions_OrderIndependent(t *testing.T) {
	events := []report.Event{
		{EmployeeID: "e1", Type: attendance.PunchIn, Time: at(4, 9, 0)},
		{EmployeeID: "e1", Type: attendance.PunchOut, Time: at(4, 12, 0)},
		{EmployeeID: "e1", Type: attendance.PunchIn, Time: at(4, 13, 0)},
		{EmployeeID: "e1", Type: attendance.PunchOut, Time: at(4, 18, 0)},
	}
	want := BuildSessions(events)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]report.Event(nil), events...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, BuildSessions(shuffled))
	}
}

func TestBuildSessions_ClockSkewNeverNegative(t *testing.T) {
	// OUT recorded before IN
	events := []report.Event{
		{EmployeeID: "e1", Type: attendance.PunchIn, Time: at(4, 18, 0)},
		{EmployeeID: "e1", Type: attendance.PunchOut, Time: at(4, 9, 0)},
	}

	sessions := BuildSessions(events)

	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Mislabeled)
	assert.False(t, WorkedHours(sessions[0]).IsNegative())
}

func TestWorkedHours(t *testing.T) {
	tests := []struct {
		name    string
		session report.Session
		want    string
	}{
		{"complete", report.Session{In: ptr(at(4, 9, 10)), Out: ptr(at(4, 18, 5))}, "8.92"},
		{"open", report.Session{In: ptr(at(4, 9, 0))}, "0.00"},
		{"reversed", report.Session{In: ptr(at(4, 18, 0)), Out: ptr(at(4, 9, 0))}, "0.00"},
		{"equal", report.Session{In: ptr(at(4, 9, 0)), Out: ptr(at(4, 9, 0))}, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorkedHours(tt.session).StringFixed(2))
		})
	}
}

func TestClassify(t *testing.T) {
	day := at(4, 0, 0)
	policy := testPolicy()

	tests := []struct {
		name     string
		sessions []report.Session
		want     Classification
	}{
		{
			name:     "no sessions is absent",
			sessions: nil,
			want:     Classification{Status: report.StatusAbsent},
		},
		{
			name:     "arrival inside grace is present",
			sessions: []report.Session{{In: ptr(at(4, 9, 10)), Out: ptr(at(4, 18, 5))}},
			want:     Classification{Status: report.StatusPresent},
		},
		{
			name:     "late and early reports both minutes",
			sessions: []report.Session{{In: ptr(at(4, 9, 25)), Out: ptr(at(4, 17, 40))}},
			want:     Classification{Status: report.StatusLate, LateMinutes: 15, EarlyMinutes: 10},
		},
		{
			name:     "early leave only",
			sessions: []report.Session{{In: ptr(at(4, 9, 0)), Out: ptr(at(4, 17, 0))}},
			want:     Classification{Status: report.StatusEarlyLeave, EarlyMinutes: 50},
		},
		{
			name:     "open session is missing punch",
			sessions: []report.Session{{In: ptr(at(4, 9, 30))}},
			want:     Classification{Status: report.StatusMissingPunch, LateMinutes: 20},
		},
		{
			name: "missing punch wins over late",
			sessions: []report.Session{
				{In: ptr(at(4, 9, 0)), Out: ptr(at(4, 12, 0))},
				{In: ptr(at(4, 13, 0))},
			},
			want: Classification{Status: report.StatusMissingPunch, EarlyMinutes: 350},
		},
		{
			name: "under a minute past grace is present",
			sessions: []report.Session{{
				In:  ptr(at(4, 9, 10).Add(30 * time.Second)),
				Out: ptr(at(4, 17, 50).Add(-30 * time.Second)),
			}},
			want: Classification{Status: report.StatusPresent},
		},
		{
			name:     "seconds past a whole minute count the minute",
			sessions: []report.Session{{In: ptr(at(4, 9, 11).Add(45 * time.Second)), Out: ptr(at(4, 18, 0))}},
			want:     Classification{Status: report.StatusLate, LateMinutes: 1},
		},
		{
			name:     "mislabeled session is flagged",
			sessions: []report.Session{{In: ptr(at(4, 9, 0)), Out: ptr(at(4, 18, 0)), Mislabeled: true}},
			want:     Classification{Status: report.StatusPresent, LabelMismatch: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(day, tt.sessions, policy, ist))
		})
	}
}

func employees() []report.EmployeeRef {
	sales, eng := "Sales", "Engineering"
	return []report.EmployeeRef{
		report.NewEmployeeRef("e1", "Asha", "E001", &sales, nil),
		report.NewEmployeeRef("e2", "Ravi", "E002", &eng, nil),
		report.NewEmployeeRef("e3", "Meera", "E003", nil, nil),
	}
}

func TestBuildDayRecords(t *testing.T) {
	query := report.NewReportQuery("c1", at(4, 0, 0), at(5, 0, 0), ist)
	punches := []attendance.Punch{
		punch("e1", attendance.PunchIn, at(4, 9, 25)),
		punch("e1", attendance.PunchOut, at(4, 17, 40)),
		punch("e2", attendance.PunchIn, at(5, 9, 0)),
		{EmployeeID: "e2", Type: attendance.PunchOut},   // no timestamp
		{EmployeeID: "e1", Type: "BREAK", PunchTime: ptr(at(4, 12, 0))},
		punch("ghost", attendance.PunchIn, at(4, 9, 0)), // not in scope
	}

	set := BuildDayRecords(query, employees(), punches, testPolicy())

	assert.Equal(t, 2, set.Skipped)
	require.Len(t, set.Employees, 3)
	require.Len(t, set.Days, 2)

	e1 := set.For("e1")
	require.Len(t, e1, 2)
	assert.Equal(t, report.StatusLate, e1[0].Status)
	assert.Equal(t, "8.25", e1[0].WorkedHours.StringFixed(2))
	assert.Equal(t, report.StatusAbsent, e1[1].Status)

	e2 := set.For("e2")
	assert.Equal(t, report.StatusAbsent, e2[0].Status)
	assert.Equal(t, report.StatusMissingPunch, e2[1].Status)

	for _, r := range set.For("e3") {
		assert.Equal(t, report.StatusAbsent, r.Status)
		assert.True(t, r.WorkedHours.IsZero())
	}
}

func TestBuildDayRecords_GroupsByLocalDay(t *testing.T) {
	query := report.NewReportQuery("c1", at(4, 0, 0), at(4, 0, 0), ist)
	// 00:15 IST on the 4th is still the 3rd in UTC
	punches := []attendance.Punch{
		punch("e1", attendance.PunchIn, at(4, 0, 15)),
		punch("e1", attendance.PunchOut, at(4, 8, 15)),
	}

	set := BuildDayRecords(query, employees(), punches, testPolicy())

	r := set.For("e1")[0]
	assert.Equal(t, "8.00", r.WorkedHours.StringFixed(2))
	assert.Equal(t, report.StatusEarlyLeave, r.Status)
}

func TestBuildDayRecords_ScopeFilter(t *testing.T) {
	query := report.NewReportQuery("c1", at(4, 0, 0), at(4, 0, 0), ist).WithDepartment(report.Unassigned)

	set := BuildDayRecords(query, employees(), []attendance.Punch{
		punch("e1", attendance.PunchIn, at(4, 9, 0)),
		{EmployeeID: "e1", Type: attendance.PunchOut},
	}, testPolicy())

	require.Len(t, set.Employees, 1)
	assert.Equal(t, "e3", set.Employees[0].ID)
	assert.Zero(t, set.Skipped, "malformed punches of out-of-scope employees are not counted")
}

func TestSummarize_FullMonth(t *testing.T) {
	policy := testPolicy()
	query := report.NewReportQuery("c1", at(1, 0, 0), at(31, 0, 0), ist)

	var punches []attendance.Punch
	working := 0
	for _, day := range query.Days() {
		if policy.IsWeekend(day.Weekday()) {
			continue
		}
		working++
		d := day.Day()
		punches = append(punches,
			punch("e1", attendance.PunchIn, at(d, 9, 0)),
			punch("e1", attendance.PunchOut, at(d, 17, 0)),
		)
	}
	require.Equal(t, 21, working)

	set := BuildDayRecords(query, employees(), punches, policy)

	s := Summarize("e1", set.For("e1"), policy)
	assert.Equal(t, working, s.PresentDays)
	assert.Equal(t, 31-working, s.AbsentDays)
	assert.Equal(t, "8.00", s.AverageHoursPerDay.StringFixed(2))
	assert.True(t, s.OvertimeHours.IsZero())
	assert.Equal(t, "168.00", s.TotalHours.StringFixed(2))

	idle := Summarize("e2", set.For("e2"), policy)
	assert.Zero(t, idle.PresentDays)
	assert.True(t, idle.AverageHoursPerDay.IsZero())
	assert.True(t, idle.OvertimeHours.IsZero())
}

func TestSummarize_OrderIndependentAndOvertime(t *testing.T) {
	policy := testPolicy()
	records := []report.DayRecord{
		{Status: report.StatusPresent, WorkedHours: decimal.NewFromInt(10)},
		{Status: report.StatusLate, WorkedHours: decimal.NewFromInt(9)},
		{Status: report.StatusMissingPunch, WorkedHours: decimal.NewFromInt(3)},
		{Status: report.StatusAbsent, WorkedHours: decimal.Zero},
	}
	reversed := []report.DayRecord{records[3], records[2], records[1], records[0]}

	a := Summarize("e1", records, policy)
	b := Summarize("e1", reversed, policy)

	assert.Equal(t, a.TotalHours.String(), b.TotalHours.String())
	assert.Equal(t, 2, a.PresentDays)
	assert.Equal(t, 1, a.LateDays)
	assert.Equal(t, 1, a.MissingPunchDays)
	assert.Equal(t, "22.00", a.TotalHours.StringFixed(2))
	assert.Equal(t, "11.00", a.AverageHoursPerDay.StringFixed(2))
	assert.Equal(t, "6.00", a.OvertimeHours.StringFixed(2))
}
