package report

import "errors"

var (
	ErrInvalidDateRange = errors.New("end date must not be before start date")

	// ErrUpstreamUnavailable wraps failures of the database, photo storage or
	// spreadsheet writer so callers never mistake them for an empty report.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
