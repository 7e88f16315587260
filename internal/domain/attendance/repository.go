package attendance

import (
	"context"
	"time"
)

// PunchRepository defines data access methods for punch records.
// All methods include companyID parameter to prevent cross-company data access attacks.
// Punches are append-only: there is no update or delete.
type PunchRepository interface {
	// Create stores a new punch
	Create(ctx context.Context, punch Punch) (Punch, error)

	// List retrieves punches with filters and pagination, newest first
	List(ctx context.Context, filter PunchFilter, companyID string) ([]Punch, int64, error)

	// ListMine retrieves punches of one employee, newest first
	ListMine(ctx context.Context, employeeID string, filter MyPunchFilter, companyID string) ([]Punch, int64, error)

	// ListInRange retrieves every punch with punch_time in [start, end), oldest first.
	// Used by the report engine and raw export.
	ListInRange(ctx context.Context, companyID string, start, end time.Time) ([]Punch, error)

	// LatestPerEmployee retrieves the most recent punch of every employee
	LatestPerEmployee(ctx context.Context, companyID string) ([]Punch, error)
}
