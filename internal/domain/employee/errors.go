package employee

import "errors"

var (
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEmployeeCodeExists      = errors.New("employee code already exists")
	ErrInvalidEmployeeCode     = errors.New("invalid employee code format")
	ErrUnauthorized            = errors.New("unauthorized to access this employee")
	ErrEmployeeAlreadyInactive = errors.New("employee is already inactive")
)
