package http

import (
	"log/slog"
	"net/http"

	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/handler/http/response"
)

type CompanyHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	GetMy(w http.ResponseWriter, r *http.Request)
	UpdateMy(w http.ResponseWriter, r *http.Request)
	GetShiftPolicy(w http.ResponseWriter, r *http.Request)
	UpdateShiftPolicy(w http.ResponseWriter, r *http.Request)
}

type CompanyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &CompanyHandlerImpl{companyService: companyService}
}

// Create implements CompanyHandler. The caller must refresh the access
// token afterwards to pick up the owner role and company_id.
func (c *CompanyHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req company.CreateCompanyRequest
	if !decodeJSON(w, r, "Create company", &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := c.companyService.Create(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create company", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Company created successfully", result)
}

// GetMy implements CompanyHandler.
func (c *CompanyHandlerImpl) GetMy(w http.ResponseWriter, r *http.Request) {
	result, err := c.companyService.GetMy(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateMy implements CompanyHandler.
func (c *CompanyHandlerImpl) UpdateMy(w http.ResponseWriter, r *http.Request) {
	var req company.UpdateCompanyRequest
	if !decodeJSON(w, r, "Update company", &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := c.companyService.UpdateMy(r.Context(), req)
	if err != nil {
		slog.Error("Company update service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Company updated successfully", result)
}

// GetShiftPolicy implements CompanyHandler.
func (c *CompanyHandlerImpl) GetShiftPolicy(w http.ResponseWriter, r *http.Request) {
	result, err := c.companyService.GetShiftPolicy(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateShiftPolicy implements CompanyHandler.
func (c *CompanyHandlerImpl) UpdateShiftPolicy(w http.ResponseWriter, r *http.Request) {
	var req company.UpdateShiftPolicyRequest
	if !decodeJSON(w, r, "Update shift policy", &req) {
		return
	}

	result, err := c.companyService.UpdateShiftPolicy(r.Context(), req)
	if err != nil {
		slog.Error("Shift policy update service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift policy updated successfully", result)
}
