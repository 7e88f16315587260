package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// NUMERIC travels as text so it maps onto decimal.Decimal without a custom codec.
const companyColumns = `id, owner_id, name, username, address,
		shift_start_minutes, shift_end_minutes, late_grace_minutes, early_leave_grace_minutes,
		standard_daily_hours::text, weekend_days, created_at, updated_at`

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

func scanCompany(row pgx.Row) (company.Company, error) {
	var (
		c     company.Company
		hours *string
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Username,
		&c.Address,
		&c.ShiftStartMinutes,
		&c.ShiftEndMinutes,
		&c.LateGraceMinutes,
		&c.EarlyLeaveGraceMinutes,
		&hours,
		&c.WeekendDays,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return company.Company{}, err
	}
	if hours != nil {
		d, err := decimal.NewFromString(*hours)
		if err != nil {
			return company.Company{}, fmt.Errorf("invalid standard_daily_hours %q: %w", *hours, err)
		}
		c.StandardDailyHours = &d
	}
	return c, nil
}

// Create implements company.CompanyRepository.
func (c *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	id, err := uuid.NewV7()
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to generate company id: %w", err)
	}

	query := `
		INSERT INTO companies (id, owner_id, name, username, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + companyColumns

	created, err := scanCompany(q.QueryRow(ctx, query,
		id.String(), newCompany.OwnerID, newCompany.Name, newCompany.Username, newCompany.Address))
	if err != nil {
		if isUniqueViolation(err, "companies_username_key") {
			return company.Company{}, company.ErrCompanyUsernameExists
		}
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return created, nil
}

// GetByID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	found, err := scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	return found, nil
}

// GetByUsername implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByUsername(ctx context.Context, username string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	found, err := scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE LOWER(username) = LOWER($1)`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company by username: %w", err)
	}
	return found, nil
}

// ExistsByUsername implements company.CompanyRepository.
func (c *companyRepositoryImpl) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	q := GetQuerier(ctx, c.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check company username: %w", err)
	}
	return exists, nil
}

// Update implements company.CompanyRepository.
func (c *companyRepositoryImpl) Update(ctx context.Context, id string, req company.UpdateCompanyRequest) error {
	q := GetQuerier(ctx, c.db)

	setClauses := []string{}
	args := []interface{}{}

	add := func(col string, val interface{}) {
		args = append(args, val)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}

	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)
	sql := "UPDATE companies SET " + strings.Join(setClauses, ", ") + fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update company with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}

// UpdateShiftPolicy replaces every override column; nil clears an override.
func (c *companyRepositoryImpl) UpdateShiftPolicy(ctx context.Context, id string, p company.ShiftPolicyOverrides) error {
	q := GetQuerier(ctx, c.db)

	var hours *string
	if p.StandardDailyHours != nil {
		s := p.StandardDailyHours.String()
		hours = &s
	}

	tag, err := q.Exec(ctx, `
		UPDATE companies SET
			shift_start_minutes = $1,
			shift_end_minutes = $2,
			late_grace_minutes = $3,
			early_leave_grace_minutes = $4,
			standard_daily_hours = $5::numeric,
			weekend_days = $6,
			updated_at = NOW()
		WHERE id = $7
	`, p.ShiftStartMinutes, p.ShiftEndMinutes, p.LateGraceMinutes, p.EarlyLeaveGraceMinutes, hours, p.WeekendDays, id)
	if err != nil {
		return fmt.Errorf("failed to update shift policy for company %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}
