package attendance

import "errors"

// Attendance domain errors
var (
	// Punch errors
	ErrInvalidPunchType  = errors.New("punch type must be IN or OUT")
	ErrPhotoRequired     = errors.New("punch proof photo is required")
	ErrEmployeeInactive  = errors.New("inactive employees cannot punch")
	ErrNotAnEmployee     = errors.New("only employees can punch")
	ErrInvalidDateFilter = errors.New("from date must not be after to date")

	// Live feed
	ErrFeedUnavailable = errors.New("live punch feed is not enabled")

	// General errors
	ErrPunchNotFound = errors.New("punch record not found")
)
