package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/auth"
	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidEmployeeCodeCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrEmployeeInactive):
		Forbidden(w, "Employee account is inactive")
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Role errors
	case errors.Is(err, user.ErrOwnerAccessRequired),
		errors.Is(err, user.ErrEmployeeAccessRequired),
		errors.Is(err, user.ErrPendingRoleAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company setup required")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrCompanyUsernameExists):
		Conflict(w, "Company username already exists")
	case errors.Is(err, company.ErrCompanyAlreadySetUp):
		Conflict(w, "User already owns a company")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already exists")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrEmployeeInactive),
		errors.Is(err, attendance.ErrNotAnEmployee):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrPunchNotFound):
		NotFound(w, "Punch record not found")
	case errors.Is(err, attendance.ErrFeedUnavailable):
		NotFound(w, err.Error())

	// Collaborators
	case errors.Is(err, report.ErrUpstreamUnavailable):
		ServiceUnavailable(w, "A required service is unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "Request timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		slog.Debug("Request cancelled", "error", err)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
