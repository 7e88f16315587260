package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/dashboard"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
)

type dashboardRepositoryImpl struct {
	db *database.DB
}

func NewDashboardRepository(db *database.DB) dashboard.DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

// CountActiveEmployees counts employees that are neither deleted nor deactivated.
func (r *dashboardRepositoryImpl) CountActiveEmployees(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM employees
		WHERE company_id = $1 AND deleted_at IS NULL AND is_active = TRUE
	`, companyID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}
	return total, nil
}

// PresenceByDay returns the number of distinct employees with at least one
// punch per local day in [start, end). Days without punches are omitted.
func (r *dashboardRepositoryImpl) PresenceByDay(ctx context.Context, companyID string, start, end time.Time, timezone string) ([]dashboard.DayCount, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT to_char(p.punch_time AT TIME ZONE $4, 'YYYY-MM-DD') AS day,
		       COUNT(DISTINCT p.employee_id)
		FROM punches p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.company_id = $1
		  AND p.punch_time >= $2 AND p.punch_time < $3
		  AND e.deleted_at IS NULL AND e.is_active = TRUE
		GROUP BY day
		ORDER BY day
	`, companyID, start, end, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to count presence by day: %w", err)
	}
	defer rows.Close()

	counts := []dashboard.DayCount{}
	for rows.Next() {
		var c dashboard.DayCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// PresenceByDepartment returns, per department, the active headcount and how
// many of them punched in [start, end).
func (r *dashboardRepositoryImpl) PresenceByDepartment(ctx context.Context, companyID string, start, end time.Time) ([]dashboard.DepartmentCount, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT NULLIF(e.department, '') AS department,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE EXISTS (
		           SELECT 1 FROM punches p
		           WHERE p.employee_id = e.id
		             AND p.punch_time >= $2 AND p.punch_time < $3
		       )) AS present
		FROM employees e
		WHERE e.company_id = $1 AND e.deleted_at IS NULL AND e.is_active = TRUE
		GROUP BY NULLIF(e.department, '')
		ORDER BY department NULLS LAST
	`, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count presence by department: %w", err)
	}
	defer rows.Close()

	counts := []dashboard.DepartmentCount{}
	for rows.Next() {
		var c dashboard.DepartmentCount
		if err := rows.Scan(&c.Department, &c.Total, &c.Present); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
