package attendance

import (
	"time"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// Valid reports whether t is one of the known punch labels.
func (t PunchType) Valid() bool {
	return t == PunchIn || t == PunchOut
}

// Punch is one append-only IN/OUT event. PunchTime is nullable so rows with a
// missing timestamp can be detected and skipped by readers.
type Punch struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Type       PunchType
	PunchTime  *time.Time
	Latitude   *float64
	Longitude  *float64
	PhotoPath  *string
	CreatedAt  time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
	Department   *string
	Designation  *string
}
