package company

import "errors"

var (
	ErrCompanyNotFound              = errors.New("company not found")
	ErrCompanyUsernameExists        = errors.New("company username already exists")
	ErrInvalidCompanyUsernameFormat = errors.New("invalid company username format")
	ErrInvalidCompanyName           = errors.New("company name cannot be empty")
	ErrCompanyAlreadySetUp          = errors.New("user already owns a company")
	ErrInvalidShiftWindow           = errors.New("shift end must be after shift start")
)
