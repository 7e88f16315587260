package auth

import "errors"

var (
	ErrInvalidCredentials             = errors.New("invalid email or password")
	ErrInvalidEmployeeCodeCredentials = errors.New("invalid company username, employee code or password")
	ErrEmployeeInactive               = errors.New("employee account is inactive")
	ErrEmailAlreadyExists             = errors.New("email already registered")
	ErrInvalidToken                   = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked            = errors.New("refresh token has been revoked")
	ErrUserNotFound                   = errors.New("user not found")
)
