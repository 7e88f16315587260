package user

import "errors"

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrUserEmailExists           = errors.New("email already registered")
	ErrOAuthProviderIDExists     = errors.New("oauth provider id already registered")
	ErrOwnerAccessRequired       = errors.New("owner access required")
	ErrEmployeeAccessRequired    = errors.New("employee access required")
	ErrPendingRoleAccessRequired = errors.New("pending role access required")
	ErrInsufficientPermissions   = errors.New("insufficient permissions")
	ErrCompanyIDRequired         = errors.New("company ID is required")
)
