package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/export"
	"github.com/geopunch/attendance-backend/internal/pkg/geocode"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
	"github.com/geopunch/attendance-backend/internal/pkg/sse"
	"github.com/geopunch/attendance-backend/internal/pkg/utils"
	"github.com/geopunch/attendance-backend/internal/service/file"
	"github.com/go-chi/jwtauth/v5"
)

const (
	markerColorIn  = "green"
	markerColorOut = "red"

	// singleMarkerZoom is a street-level zoom for a map with one marker
	singleMarkerZoom = 15

	osmMarkerURL = "https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=17/%.6f/%.6f"
)

type AttendanceServiceImpl struct {
	punchRepo    attendance.PunchRepository
	employeeRepo employee.EmployeeRepository
	fileService  file.FileService
	// geocoder is nil when reverse geocoding is disabled
	geocoder geocode.Resolver
	// feed receives every recorded punch, keyed by company
	feed     *sse.Hub
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
}

func NewAttendanceService(
	punchRepo attendance.PunchRepository,
	employeeRepo employee.EmployeeRepository,
	fileService file.FileService,
	geocoder geocode.Resolver,
	feed *sse.Hub,
	m *metrics.Metrics,
	loc *time.Location,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		punchRepo:    punchRepo,
		employeeRepo: employeeRepo,
		fileService:  fileService,
		geocoder:     geocoder,
		feed:         feed,
		metrics:      m,
		loc:          loc,
		now:          time.Now,
	}
}

func getCompanyID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}
	return companyID, nil
}

// getEmployeeClaims returns company and employee IDs, failing for tokens
// that do not belong to an employee.
func getEmployeeClaims(ctx context.Context) (companyID, employeeID string, err error) {
	companyID, err = getCompanyID(ctx)
	if err != nil {
		return "", "", err
	}

	_, claims, _ := jwtauth.FromContext(ctx)
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", attendance.ErrNotAnEmployee
	}
	return companyID, employeeID, nil
}

// Punch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	companyID, employeeID, err := getEmployeeClaims(ctx)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	req.EmployeeID = employeeID
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	if !emp.IsActive {
		return attendance.PunchResponse{}, attendance.ErrEmployeeInactive
	}

	now := s.now().UTC()

	photoPath, err := s.fileService.UploadPunchPhoto(ctx, companyID, employeeID, now.In(s.loc), req.File, req.FileHeader.Filename, string(req.Type))
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
	}

	created, err := s.punchRepo.Create(ctx, attendance.Punch{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Type:       req.Type,
		PunchTime:  &now,
		Latitude:   &req.Latitude,
		Longitude:  &req.Longitude,
		PhotoPath:  &photoPath,
	})
	if err != nil {
		// the punch is the source of truth; an orphaned photo is only garbage
		if delErr := s.fileService.DeleteFile(context.WithoutCancel(ctx), photoPath); delErr != nil {
			slog.Error("Failed to delete photo of failed punch", "path", photoPath, "error", delErr)
		}
		return attendance.PunchResponse{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
	}

	s.metrics.PunchRecorded(string(created.Type))
	slog.Info("Punch recorded", "company_id", companyID, "employee_id", employeeID, "type", created.Type)

	resp := s.toResponse(ctx, created, nil)
	resp.EmployeeName = emp.Name
	resp.EmployeeCode = emp.EmployeeCode
	s.feed.Publish(companyID, sse.Event{Event: "punch", Data: resp})

	return resp, nil
}

// SubscribePunches implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SubscribePunches(ctx context.Context) (<-chan sse.Event, func(), error) {
	if s.feed == nil {
		return nil, nil, attendance.ErrFeedUnavailable
	}

	companyID, err := getCompanyID(ctx)
	if err != nil {
		return nil, nil, err
	}

	events, cleanup := s.feed.Subscribe(companyID)
	return events, cleanup, nil
}

// GetMyPunches implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyPunches(ctx context.Context, filter attendance.MyPunchFilter) (attendance.ListPunchResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListPunchResponse{}, err
	}

	companyID, employeeID, err := getEmployeeClaims(ctx)
	if err != nil {
		return attendance.ListPunchResponse{}, err
	}

	punches, total, err := s.punchRepo.ListMine(ctx, employeeID, filter, companyID)
	if err != nil {
		return attendance.ListPunchResponse{}, fmt.Errorf("failed to list punches: %w", err)
	}

	return s.listResponse(ctx, punches, total, filter.Page, filter.Limit, nil), nil
}

// ListPunches implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListPunches(ctx context.Context, filter attendance.PunchFilter) (attendance.ListPunchResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListPunchResponse{}, err
	}

	companyID, err := getCompanyID(ctx)
	if err != nil {
		return attendance.ListPunchResponse{}, err
	}

	punches, total, err := s.punchRepo.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListPunchResponse{}, fmt.Errorf("failed to list punches: %w", err)
	}

	var places *geocode.Cache
	if s.geocoder != nil {
		places = geocode.NewCache(s.geocoder)
	}
	return s.listResponse(ctx, punches, total, filter.Page, filter.Limit, places), nil
}

func (s *AttendanceServiceImpl) listResponse(ctx context.Context, punches []attendance.Punch, total int64, page, limit int, places *geocode.Cache) attendance.ListPunchResponse {
	responses := make([]attendance.PunchResponse, 0, len(punches))
	for _, p := range punches {
		responses = append(responses, s.toResponse(ctx, p, places))
	}

	return attendance.ListPunchResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: utils.TotalPages(total, limit),
		Showing:    utils.Showing(page, limit, total),
		Punches:    responses,
	}
}

func (s *AttendanceServiceImpl) toResponse(ctx context.Context, p attendance.Punch, places *geocode.Cache) attendance.PunchResponse {
	resp := attendance.PunchResponse{
		ID:          p.ID,
		EmployeeID:  p.EmployeeID,
		Department:  p.Department,
		Designation: p.Designation,
		Type:        string(p.Type),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
	}
	if p.EmployeeName != nil {
		resp.EmployeeName = *p.EmployeeName
	}
	if p.EmployeeCode != nil {
		resp.EmployeeCode = *p.EmployeeCode
	}

	if p.PunchTime != nil {
		local := p.PunchTime.In(s.loc)
		resp.PunchTime = local.Format(time.RFC3339)
		resp.Date = local.Format("2006-01-02")
		resp.Time = local.Format("15:04:05")
	}

	if p.PhotoPath != nil && *p.PhotoPath != "" {
		if url, err := s.fileService.GetFileURL(ctx, *p.PhotoPath, 0); err == nil {
			resp.PhotoURL = &url
		} else {
			slog.Warn("Failed to resolve photo URL", "punch_id", p.ID, "error", err)
		}
	}

	if p.Latitude != nil && p.Longitude != nil {
		mapURL := MapLink(*p.Latitude, *p.Longitude)
		resp.MapURL = &mapURL

		if places != nil {
			place, err := places.Place(ctx, *p.Latitude, *p.Longitude)
			if err != nil && !errors.Is(err, geocode.ErrNoResult) {
				slog.Warn("Reverse geocoding failed", "punch_id", p.ID, "error", err)
			}
			if place != "" {
				resp.Place = &place
			}
		}
	}

	return resp
}

// MapLink returns an OpenStreetMap link with a marker at the coordinate.
func MapLink(lat, lng float64) string {
	return fmt.Sprintf(osmMarkerURL, lat, lng, lat, lng)
}

// GetMap implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMap(ctx context.Context) (attendance.MapResponse, error) {
	companyID, err := getCompanyID(ctx)
	if err != nil {
		return attendance.MapResponse{}, err
	}

	latest, err := s.punchRepo.LatestPerEmployee(ctx, companyID)
	if err != nil {
		return attendance.MapResponse{}, fmt.Errorf("failed to load latest punches: %w", err)
	}

	return s.buildMap(ctx, latest), nil
}

func (s *AttendanceServiceImpl) buildMap(ctx context.Context, latest []attendance.Punch) attendance.MapResponse {
	markers := make([]attendance.MapMarker, 0, len(latest))
	points := make([]utils.Point, 0, len(latest))

	for _, p := range latest {
		// punches without a location cannot be placed
		if p.Latitude == nil || p.Longitude == nil || p.PunchTime == nil {
			continue
		}

		color := markerColorIn
		if p.Type == attendance.PunchOut {
			color = markerColorOut
		}

		marker := attendance.MapMarker{
			EmployeeID: p.EmployeeID,
			Type:       string(p.Type),
			PunchTime:  p.PunchTime.In(s.loc).Format(time.RFC3339),
			Latitude:   *p.Latitude,
			Longitude:  *p.Longitude,
			Color:      color,
		}
		if p.EmployeeName != nil {
			marker.EmployeeName = *p.EmployeeName
		}
		if p.EmployeeCode != nil {
			marker.EmployeeCode = *p.EmployeeCode
		}
		if p.PhotoPath != nil && *p.PhotoPath != "" {
			if url, err := s.fileService.GetFileURL(ctx, *p.PhotoPath, 0); err == nil {
				marker.PhotoURL = &url
			}
		}

		markers = append(markers, marker)
		points = append(points, utils.Point{Lat: *p.Latitude, Lng: *p.Longitude})
	}

	resp := attendance.MapResponse{Markers: markers}

	box, ok := utils.Bounds(points)
	if !ok {
		return resp
	}

	center := box.Center()
	resp.Bounds = &attendance.MapBounds{South: box.South, West: box.West, North: box.North, East: box.East}
	resp.CenterLat = center.Lat
	resp.CenterLng = center.Lng
	resp.SpanMeters = box.Diagonal()
	if len(markers) == 1 {
		resp.Zoom = singleMarkerZoom
	}
	return resp
}

// Export implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Export(ctx context.Context, req attendance.ExportRequest) (attendance.ExportResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ExportResult{}, err
	}

	companyID, err := getCompanyID(ctx)
	if err != nil {
		return attendance.ExportResult{}, err
	}

	from, _ := time.ParseInLocation("2006-01-02", req.From, s.loc)
	to, _ := time.ParseInLocation("2006-01-02", req.To, s.loc)

	punches, err := s.punchRepo.ListInRange(ctx, companyID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return attendance.ExportResult{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
	}

	table := ExportTable(punches, req.Layout, s.loc)
	name := export.Filename("attendance-"+string(req.Layout), req.From+"_"+req.To)

	f, err := export.Render(table, report.Format(req.Format), name)
	if err != nil {
		return attendance.ExportResult{}, err
	}

	return attendance.ExportResult{
		Filename:       f.Filename,
		ContentType:    f.ContentType,
		Format:         req.Format,
		Data:           f.Data,
		SkippedPunches: table.SkippedPunches,
	}, nil
}

// ExportTable projects raw punches, oldest first, into the chosen layout.
// Punches without a timestamp are counted as skipped.
func ExportTable(punches []attendance.Punch, layout attendance.ExportLayout, loc *time.Location) report.Table {
	var header []report.Cell
	if layout == attendance.LayoutB {
		header = report.HeaderCells("Date", "Name", "Department", "Type", "Time")
	} else {
		header = report.HeaderCells("Name", "Code", "Date", "Type", "Time")
	}
	table := report.NewTable("Attendance", header)

	for _, p := range punches {
		if p.PunchTime == nil {
			table.SkippedPunches++
			continue
		}

		local := p.PunchTime.In(loc)
		date := report.TextCell(local.Format("2006-01-02"))
		clock := report.TextCell(local.Format("15:04:05"))
		name := report.TextCell(deref(p.EmployeeName))
		typ := report.TextCell(string(p.Type))

		if layout == attendance.LayoutB {
			department := report.Unassigned
			if p.Department != nil && *p.Department != "" {
				department = *p.Department
			}
			table.Rows = append(table.Rows, []report.Cell{date, name, report.TextCell(department), typ, clock})
			continue
		}
		table.Rows = append(table.Rows, []report.Cell{name, report.TextCell(deref(p.EmployeeCode)), date, typ, clock})
	}

	return table
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
