package employee

import (
	"time"
)

type Employee struct {
	ID           string
	CompanyID    string
	EmployeeCode string
	Name         string
	Designation  *string
	Department   *string
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
