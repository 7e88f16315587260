package report

import (
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/report"
)

type Classification struct {
	Status        report.Status
	LateMinutes   int
	EarlyMinutes  int
	LabelMismatch bool
}

// Classify derives the attendance status of one employee-day.
//
// Precedence is Absent, MissingPunch, Late, EarlyLeave, Present. Late and
// early minutes are measured independently of the status, from the first In
// and the last completed Out, so a late arrival on a missing-punch day still
// reports its minutes.
func Classify(date time.Time, sessions []report.Session, policy report.ShiftPolicy, loc *time.Location) Classification {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var c Classification
	if len(sessions) == 0 {
		c.Status = report.StatusAbsent
		return c
	}

	var firstIn, lastOut *time.Time
	missing := false
	for _, s := range sessions {
		if s.Mislabeled {
			c.LabelMismatch = true
		}
		if !s.Complete() {
			missing = true
		}
		if firstIn == nil && s.In != nil {
			firstIn = s.In
		}
		if s.Complete() {
			lastOut = s.Out
		}
	}

	// Late and early are decided in whole minutes.
	if firstIn != nil {
		if threshold := policy.LateThreshold(day); firstIn.After(threshold) {
			c.LateMinutes = int(firstIn.Sub(threshold) / time.Minute)
		}
	}
	if lastOut != nil {
		if threshold := policy.EarlyThreshold(day); lastOut.Before(threshold) {
			c.EarlyMinutes = int(threshold.Sub(*lastOut) / time.Minute)
		}
	}
	late := c.LateMinutes > 0
	early := c.EarlyMinutes > 0

	switch {
	case missing:
		c.Status = report.StatusMissingPunch
	case late:
		c.Status = report.StatusLate
	case early:
		c.Status = report.StatusEarlyLeave
	default:
		c.Status = report.StatusPresent
	}

	return c
}
