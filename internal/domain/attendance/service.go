package attendance

import (
	"context"

	"github.com/geopunch/attendance-backend/internal/pkg/sse"
)

// AttendanceService defines business logic for punch operations
type AttendanceService interface {
	// Punch records an IN or OUT event with location and proof photo
	Punch(ctx context.Context, req PunchRequest) (PunchResponse, error)

	// GetMyPunches retrieves punches of the authenticated employee
	GetMyPunches(ctx context.Context, filter MyPunchFilter) (ListPunchResponse, error)

	// ListPunches retrieves punches with filters (owner)
	ListPunches(ctx context.Context, filter PunchFilter) (ListPunchResponse, error)

	// GetMap retrieves the latest punch per employee with map bounds
	GetMap(ctx context.Context) (MapResponse, error)

	// Export writes raw punches in the requested layout and format
	Export(ctx context.Context, req ExportRequest) (ExportResult, error)

	// SubscribePunches streams punches of the caller's company as they are recorded
	SubscribePunches(ctx context.Context) (<-chan sse.Event, func(), error)
}
