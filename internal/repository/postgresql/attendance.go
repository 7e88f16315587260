package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const punchColumns = `p.id, p.company_id, p.employee_id, p.punch_type, p.punch_time,
		p.latitude, p.longitude, p.photo_path, p.created_at,
		e.name, e.employee_code, e.department, e.designation`

type punchRepositoryImpl struct {
	db *database.DB
	// loc turns YYYY-MM-DD filters into instants
	loc *time.Location
}

func NewPunchRepository(db *database.DB, loc *time.Location) attendance.PunchRepository {
	return &punchRepositoryImpl{db: db, loc: loc}
}

func scanPunch(row pgx.Row) (attendance.Punch, error) {
	var (
		p         attendance.Punch
		punchType string
	)
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &punchType, &p.PunchTime,
		&p.Latitude, &p.Longitude, &p.PhotoPath, &p.CreatedAt,
		&p.EmployeeName, &p.EmployeeCode, &p.Department, &p.Designation,
	)
	p.Type = attendance.PunchType(strings.ToUpper(strings.TrimSpace(punchType)))
	return p, err
}

func collectPunches(rows pgx.Rows) ([]attendance.Punch, error) {
	defer rows.Close()

	punches := []attendance.Punch{}
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return punches, nil
}

// Create implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Create(ctx context.Context, punch attendance.Punch) (attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Punch{}, fmt.Errorf("failed to generate punch id: %w", err)
	}

	query := `
		WITH inserted AS (
			INSERT INTO punches (id, company_id, employee_id, punch_type, punch_time, latitude, longitude, photo_path)
			VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6, $7, $8)
			RETURNING *
		)
		SELECT ` + punchColumns + `
		FROM inserted p
		JOIN employees e ON e.id = p.employee_id
	`

	created, err := scanPunch(q.QueryRow(ctx, query,
		id.String(),
		punch.CompanyID,
		punch.EmployeeID,
		string(punch.Type),
		punch.PunchTime,
		punch.Latitude,
		punch.Longitude,
		punch.PhotoPath,
	))
	if err != nil {
		return attendance.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}
	return created, nil
}

// List implements attendance.PunchRepository.
func (r *punchRepositoryImpl) List(ctx context.Context, filter attendance.PunchFilter, companyID string) ([]attendance.Punch, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"p.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	conditions, args, argIdx = r.appendDateRange(conditions, args, argIdx, filter.From, filter.To)

	if filter.EmployeeName != nil && *filter.EmployeeName != "" {
		conditions = append(conditions, fmt.Sprintf("e.name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.EmployeeName+"%")
		argIdx++
	}
	if filter.EmployeeCode != nil && *filter.EmployeeCode != "" {
		conditions = append(conditions, fmt.Sprintf("e.employee_code ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.EmployeeCode+"%")
		argIdx++
	}
	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(NULLIF(e.department, ''), '%s') = $%d", report.Unassigned, argIdx))
		args = append(args, *filter.Department)
		argIdx++
	}
	if filter.Designation != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(NULLIF(e.designation, ''), '%s') = $%d", report.Unassigned, argIdx))
		args = append(args, *filter.Designation)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM punches p JOIN employees e ON e.id = p.employee_id WHERE " + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count punches: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s
		FROM punches p
		JOIN employees e ON e.id = p.employee_id
		WHERE %s
		ORDER BY p.punch_time DESC NULLS LAST, p.id DESC
		LIMIT $%d OFFSET $%d
	`, punchColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list punches: %w", err)
	}
	punches, err := collectPunches(rows)
	if err != nil {
		return nil, 0, err
	}
	return punches, total, nil
}

// ListMine implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListMine(ctx context.Context, employeeID string, filter attendance.MyPunchFilter, companyID string) ([]attendance.Punch, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"p.company_id = $1", "p.employee_id = $2"}
	args := []interface{}{companyID, employeeID}
	argIdx := 3

	conditions, args, argIdx = r.appendDateRange(conditions, args, argIdx, filter.From, filter.To)
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM punches p WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count punches: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s
		FROM punches p
		JOIN employees e ON e.id = p.employee_id
		WHERE %s
		ORDER BY p.punch_time DESC NULLS LAST, p.id DESC
		LIMIT $%d OFFSET $%d
	`, punchColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employee punches: %w", err)
	}
	punches, err := collectPunches(rows)
	if err != nil {
		return nil, 0, err
	}
	return punches, total, nil
}

// ListInRange implements attendance.PunchRepository. Rows with a NULL
// punch_time are included so the report engine can count them as skipped.
func (r *punchRepositoryImpl) ListInRange(ctx context.Context, companyID string, start, end time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+punchColumns+`
		FROM punches p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.company_id = $1
		  AND ((p.punch_time >= $2 AND p.punch_time < $3)
		       OR (p.punch_time IS NULL AND p.created_at >= $2 AND p.created_at < $3))
		ORDER BY p.punch_time ASC NULLS LAST, p.id ASC
	`, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches in range: %w", err)
	}
	return collectPunches(rows)
}

// LatestPerEmployee implements attendance.PunchRepository.
func (r *punchRepositoryImpl) LatestPerEmployee(ctx context.Context, companyID string) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (p.employee_id) `+punchColumns+`
		FROM punches p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.company_id = $1
		  AND p.punch_time IS NOT NULL
		  AND e.deleted_at IS NULL
		ORDER BY p.employee_id, p.punch_time DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest punches: %w", err)
	}
	return collectPunches(rows)
}

// appendDateRange adds inclusive local-date bounds on p.punch_time.
func (r *punchRepositoryImpl) appendDateRange(conditions []string, args []interface{}, argIdx int, from, to *string) ([]string, []interface{}, int) {
	if from != nil && *from != "" {
		if d, err := time.ParseInLocation("2006-01-02", *from, r.loc); err == nil {
			conditions = append(conditions, fmt.Sprintf("p.punch_time >= $%d", argIdx))
			args = append(args, d)
			argIdx++
		}
	}
	if to != nil && *to != "" {
		if d, err := time.ParseInLocation("2006-01-02", *to, r.loc); err == nil {
			conditions = append(conditions, fmt.Sprintf("p.punch_time < $%d", argIdx))
			args = append(args, d.AddDate(0, 0, 1))
			argIdx++
		}
	}
	return conditions, args, argIdx
}
