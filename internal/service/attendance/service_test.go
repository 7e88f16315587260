package attendance

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
	"github.com/geopunch/attendance-backend/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fakePunchRepo struct {
	attendance.PunchRepository
	punches   []attendance.Punch
	createErr error
}

func (f *fakePunchRepo) Create(_ context.Context, p attendance.Punch) (attendance.Punch, error) {
	if f.createErr != nil {
		return attendance.Punch{}, f.createErr
	}
	p.ID = "punch-" + string(rune('a'+len(f.punches)))
	f.punches = append(f.punches, p)
	return p, nil
}

func (f *fakePunchRepo) ListInRange(_ context.Context, companyID string, start, end time.Time) ([]attendance.Punch, error) {
	var out []attendance.Punch
	for _, p := range f.punches {
		if p.CompanyID != companyID {
			continue
		}
		if p.PunchTime == nil || (!p.PunchTime.Before(start) && p.PunchTime.Before(end)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePunchRepo) LatestPerEmployee(_ context.Context, companyID string) ([]attendance.Punch, error) {
	return f.punches, nil
}

func (f *fakePunchRepo) List(_ context.Context, filter attendance.PunchFilter, companyID string) ([]attendance.Punch, int64, error) {
	return f.punches, int64(len(f.punches)), nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	rows map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id, companyID string) (employee.Employee, error) {
	e, ok := f.rows[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeFileService struct {
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (f *fakeFileService) UploadPunchPhoto(_ context.Context, companyID, employeeID string, date time.Time, file io.Reader, filename string, punchType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	path := companyID + "/" + employeeID + "/" + date.Format("20060102") + "_" + punchType + ".jpg"
	f.uploaded = append(f.uploaded, path)
	return path, nil
}

func (f *fakeFileService) DeleteFile(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFileService) GetFileURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "/uploads/" + path, nil
}

type stubResolver struct{ calls int }

func (r *stubResolver) Reverse(_ context.Context, lat, lng float64) (string, error) {
	r.calls++
	return "MG Road, Bengaluru", nil
}

func claimsCtx(t *testing.T, claims map[string]interface{}) context.Context {
	t.Helper()
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	_, tokenString, err := tokenAuth.Encode(claims)
	require.NoError(t, err)
	token, err := tokenAuth.Decode(tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func employeeCtx(t *testing.T) context.Context {
	return claimsCtx(t, map[string]interface{}{
		"sub": "emp-1", "role": "employee", "company_id": "company-1", "employee_id": "emp-1",
	})
}

func ownerCtx(t *testing.T) context.Context {
	return claimsCtx(t, map[string]interface{}{
		"sub": "user-1", "role": "owner", "company_id": "company-1",
	})
}

type fixture struct {
	svc   *AttendanceServiceImpl
	repo  *fakePunchRepo
	files *fakeFileService
	emps  *fakeEmployeeRepo
}

func newFixture(now time.Time) fixture {
	repo := &fakePunchRepo{}
	files := &fakeFileService{}
	emps := &fakeEmployeeRepo{rows: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", CompanyID: "company-1", Name: "Asha", EmployeeCode: "E001", IsActive: true},
		"emp-2": {ID: "emp-2", CompanyID: "company-1", Name: "Ravi", EmployeeCode: "E002", IsActive: false},
	}}
	svc := &AttendanceServiceImpl{
		punchRepo:    repo,
		employeeRepo: emps,
		fileService:  files,
		feed:         sse.NewHub(),
		metrics:      metrics.New(),
		loc:          ist,
		now:          func() time.Time { return now },
	}
	return fixture{svc: svc, repo: repo, files: files, emps: emps}
}

type nopFile struct{ *bytes.Reader }

func (nopFile) Close() error { return nil }

var _ multipart.File = nopFile{}

func punchRequest(typ string) attendance.PunchRequest {
	return attendance.PunchRequest{
		Type:       attendance.PunchType(typ),
		Latitude:   12.9716,
		Longitude:  77.5946,
		File:       nopFile{bytes.NewReader([]byte("jpeg"))},
		FileHeader: &multipart.FileHeader{Filename: "proof.jpg", Size: 4},
	}
}

func TestPunch_RecordsServerTimeAndPhoto(t *testing.T) {
	now := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC) // 09:00 IST
	fx := newFixture(now)

	resp, err := fx.svc.Punch(employeeCtx(t), punchRequest("in"))
	require.NoError(t, err)

	assert.Equal(t, "IN", resp.Type)
	assert.Equal(t, "2024-03-04", resp.Date)
	assert.Equal(t, "09:00:00", resp.Time)
	require.Len(t, fx.repo.punches, 1)
	assert.True(t, fx.repo.punches[0].PunchTime.Equal(now))
	assert.Equal(t, "company-1", fx.repo.punches[0].CompanyID)
	require.NotNil(t, resp.PhotoURL)
	assert.Equal(t, "/uploads/"+fx.files.uploaded[0], *resp.PhotoURL)
	require.NotNil(t, resp.MapURL)
	assert.Contains(t, *resp.MapURL, "mlat=12.971600")
}

func TestPunch_PublishesToCompanyFeed(t *testing.T) {
	now := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC)
	fx := newFixture(now)

	events, cleanup, err := fx.svc.SubscribePunches(ownerCtx(t))
	require.NoError(t, err)
	defer cleanup()

	_, err = fx.svc.Punch(employeeCtx(t), punchRequest("OUT"))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "punch", ev.Event)
		assert.Equal(t, "company-1", ev.Topic)
		resp, ok := ev.Data.(attendance.PunchResponse)
		require.True(t, ok)
		assert.Equal(t, "OUT", resp.Type)
		assert.Equal(t, "Asha", resp.EmployeeName)
	default:
		t.Fatal("expected a punch event")
	}
}

func TestSubscribePunches_DisabledFeed(t *testing.T) {
	fx := newFixture(time.Now())
	fx.svc.feed = nil

	_, _, err := fx.svc.SubscribePunches(ownerCtx(t))
	assert.ErrorIs(t, err, attendance.ErrFeedUnavailable)
}

func TestPunch_Rejections(t *testing.T) {
	now := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC)

	t.Run("owner token", func(t *testing.T) {
		fx := newFixture(now)
		_, err := fx.svc.Punch(ownerCtx(t), punchRequest("IN"))
		assert.ErrorIs(t, err, attendance.ErrNotAnEmployee)
	})

	t.Run("inactive employee", func(t *testing.T) {
		fx := newFixture(now)
		ctx := claimsCtx(t, map[string]interface{}{
			"sub": "emp-2", "role": "employee", "company_id": "company-1", "employee_id": "emp-2",
		})
		_, err := fx.svc.Punch(ctx, punchRequest("IN"))
		assert.ErrorIs(t, err, attendance.ErrEmployeeInactive)
		assert.Empty(t, fx.files.uploaded)
	})

	t.Run("invalid type", func(t *testing.T) {
		fx := newFixture(now)
		_, err := fx.svc.Punch(employeeCtx(t), punchRequest("BREAK"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type")
	})

	t.Run("upload failure is upstream", func(t *testing.T) {
		fx := newFixture(now)
		fx.files.uploadErr = errors.New("disk full")
		_, err := fx.svc.Punch(employeeCtx(t), punchRequest("IN"))
		assert.ErrorIs(t, err, report.ErrUpstreamUnavailable)
		assert.Empty(t, fx.repo.punches)
	})

	t.Run("store failure removes photo", func(t *testing.T) {
		fx := newFixture(now)
		fx.repo.createErr = errors.New("connection reset")
		_, err := fx.svc.Punch(employeeCtx(t), punchRequest("OUT"))
		assert.ErrorIs(t, err, report.ErrUpstreamUnavailable)
		require.Len(t, fx.files.uploaded, 1)
		assert.Equal(t, fx.files.uploaded, fx.files.deleted)
	})
}

func TestListPunches_ResolvesPlacesOncePerCoordinate(t *testing.T) {
	fx := newFixture(time.Now())
	resolver := &stubResolver{}
	fx.svc.geocoder = resolver

	lat, lng := 12.9716, 77.5946
	at := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fx.repo.punches = append(fx.repo.punches, attendance.Punch{
			ID: "p", CompanyID: "company-1", EmployeeID: "emp-1", Type: attendance.PunchIn,
			PunchTime: &at, Latitude: &lat, Longitude: &lng,
		})
	}

	resp, err := fx.svc.ListPunches(ownerCtx(t), attendance.PunchFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, attendance.PageSize, resp.Limit)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Punches, 3)
	for _, p := range resp.Punches {
		require.NotNil(t, p.Place)
		assert.Equal(t, "MG Road, Bengaluru", *p.Place)
	}
	assert.Equal(t, 1, resolver.calls)
}

func TestGetMap(t *testing.T) {
	at := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC)
	lat1, lng1 := 12.0, 77.0
	lat2, lng2 := 13.0, 78.0

	t.Run("empty", func(t *testing.T) {
		fx := newFixture(at)
		resp, err := fx.svc.GetMap(ownerCtx(t))
		require.NoError(t, err)
		assert.Empty(t, resp.Markers)
		assert.Nil(t, resp.Bounds)
		assert.Zero(t, resp.Zoom)
	})

	t.Run("single marker zooms in", func(t *testing.T) {
		fx := newFixture(at)
		fx.repo.punches = []attendance.Punch{
			{EmployeeID: "emp-1", Type: attendance.PunchIn, PunchTime: &at, Latitude: &lat1, Longitude: &lng1},
		}
		resp, err := fx.svc.GetMap(ownerCtx(t))
		require.NoError(t, err)
		require.Len(t, resp.Markers, 1)
		assert.Equal(t, "green", resp.Markers[0].Color)
		assert.Equal(t, singleMarkerZoom, resp.Zoom)
		assert.Equal(t, lat1, resp.CenterLat)
		assert.Zero(t, resp.SpanMeters)
	})

	t.Run("bounds fit all markers", func(t *testing.T) {
		fx := newFixture(at)
		fx.repo.punches = []attendance.Punch{
			{EmployeeID: "emp-1", Type: attendance.PunchIn, PunchTime: &at, Latitude: &lat1, Longitude: &lng1},
			{EmployeeID: "emp-2", Type: attendance.PunchOut, PunchTime: &at, Latitude: &lat2, Longitude: &lng2},
			{EmployeeID: "emp-3", Type: attendance.PunchOut, PunchTime: &at},
		}
		resp, err := fx.svc.GetMap(ownerCtx(t))
		require.NoError(t, err)
		require.Len(t, resp.Markers, 2)
		assert.Equal(t, "red", resp.Markers[1].Color)
		require.NotNil(t, resp.Bounds)
		assert.Equal(t, attendance.MapBounds{South: 12, West: 77, North: 13, East: 78}, *resp.Bounds)
		assert.Equal(t, 12.5, resp.CenterLat)
		assert.Zero(t, resp.Zoom)
		assert.Greater(t, resp.SpanMeters, 100000.0)
	})
}

func TestExportTable_Layouts(t *testing.T) {
	in := time.Date(2024, 3, 4, 3, 30, 0, 0, time.UTC)
	name, code, dept := "Asha", "E001", "Sales"
	punches := []attendance.Punch{
		{EmployeeID: "emp-1", Type: attendance.PunchIn, PunchTime: &in, EmployeeName: &name, EmployeeCode: &code, Department: &dept},
		{EmployeeID: "emp-2", Type: attendance.PunchOut, PunchTime: &in, EmployeeName: &name, EmployeeCode: &code},
		{EmployeeID: "emp-1", Type: attendance.PunchOut},
	}

	a := ExportTable(punches, attendance.LayoutA, ist)
	assert.Equal(t, []string{"Name", "Code", "Date", "Type", "Time"}, texts(a.Header))
	require.Len(t, a.Rows, 2)
	assert.Equal(t, []string{"Asha", "E001", "2024-03-04", "IN", "09:00:00"}, texts(a.Rows[0]))
	assert.Equal(t, 1, a.SkippedPunches)

	b := ExportTable(punches, attendance.LayoutB, ist)
	assert.Equal(t, []string{"Date", "Name", "Department", "Type", "Time"}, texts(b.Header))
	assert.Equal(t, []string{"2024-03-04", "Asha", "Sales", "IN", "09:00:00"}, texts(b.Rows[0]))
	assert.Equal(t, report.Unassigned, b.Rows[1][2].Text)
}

func TestExport_CSVIncludesWholeToDay(t *testing.T) {
	fx := newFixture(time.Now())
	late := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC) // 23:30 IST on the 5th
	after := time.Date(2024, 3, 5, 18, 31, 0, 0, time.UTC)
	name, code := "Asha", "E001"
	fx.repo.punches = []attendance.Punch{
		{CompanyID: "company-1", Type: attendance.PunchIn, PunchTime: &late, EmployeeName: &name, EmployeeCode: &code},
		{CompanyID: "company-1", Type: attendance.PunchOut, PunchTime: &after, EmployeeName: &name, EmployeeCode: &code},
	}

	res, err := fx.svc.Export(ownerCtx(t), attendance.ExportRequest{
		Layout: "format_a", Format: "CSV", From: "2024-03-04", To: "2024-03-05",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.Filename, ".csv"))
	assert.Equal(t, "csv", res.Format)
	assert.Contains(t, res.ContentType, "text/csv")
	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "23:30:00")
}

func TestExport_InvalidRange(t *testing.T) {
	fx := newFixture(time.Now())
	_, err := fx.svc.Export(ownerCtx(t), attendance.ExportRequest{From: "2024-03-05", To: "2024-03-04"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to must not be before from")
}

func texts(cells []report.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}
