package report

import (
	"sort"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/report"
)

// BuildSessions sorts a copy of events by time and pairs them. Events with
// equal timestamps keep their input order.
func BuildSessions(events []report.Event) []report.Session {
	sorted := make([]report.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return PairSessions(sorted)
}

// PairSessions pairs time-sorted events by alternation: the first unmatched
// event opens a session and the next one closes it, whatever their labels
// say. A trailing opener produces a session with a nil Out.
func PairSessions(sorted []report.Event) []report.Session {
	sessions := make([]report.Session, 0, (len(sorted)+1)/2)

	for i := 0; i < len(sorted); i += 2 {
		opener := sorted[i]
		in := opener.Time

		session := report.Session{
			EmployeeID: opener.EmployeeID,
			Date:       dayOf(in),
			In:         &in,
			Mislabeled: opener.Type == attendance.PunchOut,
		}

		if i+1 < len(sorted) {
			closer := sorted[i+1]
			out := closer.Time
			session.Out = &out
			if closer.Type == attendance.PunchIn {
				session.Mislabeled = true
			}
		}

		sessions = append(sessions, session)
	}

	return sessions
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
