package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	employeeColumns = `id, company_id, employee_code, name, designation, department, is_active,
		password_hash, created_at, updated_at, deleted_at`

	employeeCodeConstraint = "employees_company_code_key"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.EmployeeCode, &emp.Name, &emp.Designation, &emp.Department,
		&emp.IsActive, &emp.PasswordHash, &emp.CreatedAt, &emp.UpdatedAt, &emp.DeletedAt,
	)
	return emp, err
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetForSession implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetForSession(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByEmployeeCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByEmployeeCode(ctx context.Context, companyID, employeeCode string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE company_id = $1 AND employee_code = $2 AND deleted_at IS NULL
	`, companyID, employeeCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by code: %w", err)
	}
	return emp, nil
}

// ExistsByCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ExistsByCode(ctx context.Context, companyID string, employeeCode string, excludeID *string) (bool, error) {
	q := GetQuerier(ctx, e.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM employees
			WHERE company_id = $1 AND employee_code = $2 AND deleted_at IS NULL
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`, companyID, employeeCode, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employee code: %w", err)
	}
	return exists, nil
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	id, err := uuid.NewV7()
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to generate employee id: %w", err)
	}

	created, err := scanEmployee(q.QueryRow(ctx, `
		INSERT INTO employees (id, company_id, employee_code, name, designation, department, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+employeeColumns,
		id.String(),
		newEmployee.CompanyID,
		newEmployee.EmployeeCode,
		newEmployee.Name,
		newEmployee.Designation,
		newEmployee.Department,
		newEmployee.IsActive,
		newEmployee.PasswordHash,
	))
	if err != nil {
		if isUniqueViolation(err, employeeCodeConstraint) {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Update(ctx context.Context, id string, companyID string, req employee.UpdateEmployeeRequest, passwordHash *string) error {
	q := GetQuerier(ctx, e.db)

	setClauses := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Name != nil {
		add("name", strings.TrimSpace(*req.Name))
	}
	if req.EmployeeCode != nil {
		add("employee_code", *req.EmployeeCode)
	}
	if req.Designation != nil {
		add("designation", nullIfBlank(*req.Designation))
	}
	if req.Department != nil {
		add("department", nullIfBlank(*req.Department))
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}
	if passwordHash != nil {
		add("password_hash", *passwordHash)
	}

	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id, companyID)
	sql := fmt.Sprintf("UPDATE employees SET %s WHERE id = $%d AND company_id = $%d AND deleted_at IS NULL",
		strings.Join(setClauses, ", "), len(args)-1, len(args))

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err, employeeCodeConstraint) {
			return employee.ErrEmployeeCodeExists
		}
		return fmt.Errorf("failed to update employee with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// SoftDelete implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) SoftDelete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, e.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter, companyID string) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, e.db)

	conditions := []string{"company_id = $1", "deleted_at IS NULL"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Name != nil && *filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Name+"%")
		argIdx++
	}
	if filter.Code != nil && *filter.Code != "" {
		conditions = append(conditions, fmt.Sprintf("employee_code ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Code+"%")
		argIdx++
	}
	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(NULLIF(department, ''), '%s') = $%d", report.Unassigned, argIdx))
		args = append(args, *filter.Department)
		argIdx++
	}
	if filter.Designation != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(NULLIF(designation, ''), '%s') = $%d", report.Unassigned, argIdx))
		args = append(args, *filter.Designation)
		argIdx++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM employees WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	validSortColumns := map[string]string{
		"name":          "name",
		"employee_code": "employee_code",
		"created_at":    "created_at",
	}
	sortColumn, ok := validSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "name"
	}
	sortOrder := "ASC"
	if strings.ToUpper(filter.SortOrder) == "DESC" {
		sortOrder = "DESC"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE %s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, employeeColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	employees, err := collectEmployees(rows)
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE company_id = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY name, employee_code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	return collectEmployees(rows)
}

// FilterOptions implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) FilterOptions(ctx context.Context, companyID string) (employee.FilterOptionsResponse, error) {
	q := GetQuerier(ctx, e.db)

	options := employee.FilterOptionsResponse{Departments: []string{}, Designations: []string{}}
	err := q.QueryRow(ctx, `
		SELECT
			COALESCE(ARRAY_AGG(DISTINCT department ORDER BY department) FILTER (WHERE department <> ''), '{}'),
			COALESCE(ARRAY_AGG(DISTINCT designation ORDER BY designation) FILTER (WHERE designation <> ''), '{}')
		FROM employees
		WHERE company_id = $1 AND deleted_at IS NULL
	`, companyID).Scan(&options.Departments, &options.Designations)
	if err != nil {
		return employee.FilterOptionsResponse{}, fmt.Errorf("failed to load filter options: %w", err)
	}
	return options, nil
}

func nullIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
