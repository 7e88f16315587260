package dashboard

import (
	"context"
	"time"
)

// DayCount is the number of distinct employees who punched on a local date
type DayCount struct {
	Date  string // YYYY-MM-DD
	Count int64
}

// DepartmentCount is the headcount and presence of one department
type DepartmentCount struct {
	Department *string
	Total      int64
	Present    int64
}

// DashboardRepository defines the interface for dashboard data access
type DashboardRepository interface {
	// CountActiveEmployees returns the number of active employees
	CountActiveEmployees(ctx context.Context, companyID string) (int64, error)

	// PresenceByDay returns distinct punching employees per local day in [start, end)
	PresenceByDay(ctx context.Context, companyID string, start, end time.Time, timezone string) ([]DayCount, error)

	// PresenceByDepartment returns per-department headcount and presence in [start, end)
	PresenceByDepartment(ctx context.Context, companyID string, start, end time.Time) ([]DepartmentCount, error)
}
