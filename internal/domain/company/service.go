package company

import (
	"context"
)

type CompanyService interface {
	// Create sets up the caller's company and promotes the caller to owner
	Create(ctx context.Context, req CreateCompanyRequest) (CompanyResponse, error)
	GetMy(ctx context.Context) (CompanyResponse, error)
	UpdateMy(ctx context.Context, req UpdateCompanyRequest) (CompanyResponse, error)
	GetShiftPolicy(ctx context.Context) (ShiftPolicyResponse, error)
	UpdateShiftPolicy(ctx context.Context, req UpdateShiftPolicyRequest) (ShiftPolicyResponse, error)
}
