package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/geopunch/attendance-backend/internal/pkg/validator"
	"github.com/geopunch/attendance-backend/internal/repository/postgresql"
	"github.com/go-chi/jwtauth/v5"
)

type CompanyServiceImpl struct {
	db *database.DB
	company.CompanyRepository
	user.UserRepository

	// defaults is the configured shift policy companies override
	defaults report.ShiftPolicy
}

func NewCompanyService(
	db *database.DB,
	companyRepository company.CompanyRepository,
	userRepository user.UserRepository,
	defaults report.ShiftPolicy,
) company.CompanyService {
	return &CompanyServiceImpl{
		db:                db,
		CompanyRepository: companyRepository,
		UserRepository:    userRepository,
		defaults:          defaults,
	}
}

func claimString(ctx context.Context, key string) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	value, ok := claims[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s claim is missing or invalid", key)
	}
	return value, nil
}

func toResponse(c company.Company) company.CompanyResponse {
	return company.CompanyResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Username:  c.Username,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Create implements company.CompanyService. The caller becomes the owner; a
// fresh access token (via refresh) carries the new company_id.
func (c *CompanyServiceImpl) Create(ctx context.Context, req company.CreateCompanyRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}

	userID, err := claimString(ctx, "user_id")
	if err != nil {
		return company.CompanyResponse{}, err
	}

	var newCompany company.Company
	err = postgresql.WithTransaction(ctx, c.db, func(txCtx context.Context) error {
		owner, err := c.UserRepository.GetByID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if owner.CompanyID != nil {
			return company.ErrCompanyAlreadySetUp
		}

		exists, err := c.CompanyRepository.ExistsByUsername(txCtx, req.Username)
		if err != nil {
			return fmt.Errorf("failed to check company username: %w", err)
		}
		if exists {
			return company.ErrCompanyUsernameExists
		}

		newCompany, err = c.CompanyRepository.Create(txCtx, company.Company{
			OwnerID:  userID,
			Name:     req.Name,
			Username: req.Username,
			Address:  req.Address,
		})
		if err != nil {
			if errors.Is(err, company.ErrCompanyUsernameExists) {
				return err
			}
			return fmt.Errorf("failed to create company: %w", err)
		}

		if err := c.UserRepository.UpdateCompanyAndRole(txCtx, userID, newCompany.ID, user.RoleOwner); err != nil {
			return fmt.Errorf("failed to promote user to owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return company.CompanyResponse{}, err
	}

	slog.Info("Company created", "company_id", newCompany.ID, "owner_id", userID)
	return toResponse(newCompany), nil
}

// GetMy implements company.CompanyService.
func (c *CompanyServiceImpl) GetMy(ctx context.Context) (company.CompanyResponse, error) {
	companyID, err := claimString(ctx, "company_id")
	if err != nil {
		return company.CompanyResponse{}, err
	}

	companyData, err := c.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	return toResponse(companyData), nil
}

// UpdateMy implements company.CompanyService.
func (c *CompanyServiceImpl) UpdateMy(ctx context.Context, req company.UpdateCompanyRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}

	companyID, err := claimString(ctx, "company_id")
	if err != nil {
		return company.CompanyResponse{}, err
	}

	if err := c.CompanyRepository.Update(ctx, companyID, req); err != nil {
		return company.CompanyResponse{}, err
	}
	return c.GetMy(ctx)
}

// GetShiftPolicy implements company.CompanyService.
func (c *CompanyServiceImpl) GetShiftPolicy(ctx context.Context) (company.ShiftPolicyResponse, error) {
	companyID, err := claimString(ctx, "company_id")
	if err != nil {
		return company.ShiftPolicyResponse{}, err
	}

	companyData, err := c.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return company.ShiftPolicyResponse{}, err
	}
	return company.NewShiftPolicyResponse(companyData, c.defaults), nil
}

// UpdateShiftPolicy implements company.CompanyService. The request replaces
// every override; omitted fields fall back to the defaults.
func (c *CompanyServiceImpl) UpdateShiftPolicy(ctx context.Context, req company.UpdateShiftPolicyRequest) (company.ShiftPolicyResponse, error) {
	overrides, err := req.Overrides()
	if err != nil {
		return company.ShiftPolicyResponse{}, err
	}

	companyID, err := claimString(ctx, "company_id")
	if err != nil {
		return company.ShiftPolicyResponse{}, err
	}

	if err := validateWindow(overrides, c.defaults); err != nil {
		return company.ShiftPolicyResponse{}, err
	}

	if err := c.CompanyRepository.UpdateShiftPolicy(ctx, companyID, overrides); err != nil {
		return company.ShiftPolicyResponse{}, err
	}

	slog.Info("Shift policy updated", "company_id", companyID)
	return c.GetShiftPolicy(ctx)
}

// validateWindow checks the effective window once overrides are merged with
// the defaults, so a lone shift_start after the default end is rejected.
func validateWindow(o company.ShiftPolicyOverrides, defaults report.ShiftPolicy) error {
	merged := company.Company{
		ShiftStartMinutes: o.ShiftStartMinutes,
		ShiftEndMinutes:   o.ShiftEndMinutes,
	}.EffectivePolicy(defaults)

	if merged.ShiftEnd <= merged.ShiftStart || merged.ShiftEnd > 24*time.Hour {
		return validator.ValidationErrors{{
			Field:   "shift_end",
			Message: company.ErrInvalidShiftWindow.Error(),
		}}
	}
	return nil
}
