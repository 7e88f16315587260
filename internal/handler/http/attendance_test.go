package http

import (
	"bufio"
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/pkg/export"
	"github.com/geopunch/attendance-backend/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAttendanceService struct {
	attendance.AttendanceService
	punched  attendance.PunchRequest
	exported attendance.ExportRequest
	listed   attendance.PunchFilter
	result   attendance.ExportResult
	hub      *sse.Hub
	err      error
}

func (s *stubAttendanceService) Punch(_ context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	s.punched = req
	if s.err != nil {
		return attendance.PunchResponse{}, s.err
	}
	return attendance.PunchResponse{ID: "punch-1", Type: string(req.Type)}, nil
}

func (s *stubAttendanceService) ListPunches(_ context.Context, filter attendance.PunchFilter) (attendance.ListPunchResponse, error) {
	s.listed = filter
	return attendance.ListPunchResponse{Page: filter.Page, Punches: []attendance.PunchResponse{}}, s.err
}

func (s *stubAttendanceService) Export(_ context.Context, req attendance.ExportRequest) (attendance.ExportResult, error) {
	s.exported = req
	return s.result, s.err
}

func (s *stubAttendanceService) SubscribePunches(_ context.Context) (<-chan sse.Event, func(), error) {
	if s.hub == nil {
		return nil, nil, attendance.ErrFeedUnavailable
	}
	events, cleanup := s.hub.Subscribe("company-1")
	return events, cleanup, nil
}

func punchForm(t *testing.T, data string, withPhoto bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != "" {
		require.NoError(t, mw.WriteField("data", data))
	}
	if withPhoto {
		part, err := mw.CreateFormFile("photo", "proof.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-jpeg"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAttendanceHandler_Punch(t *testing.T) {
	t.Run("multipart success", func(t *testing.T) {
		svc := &stubAttendanceService{}
		h := NewAttendanceHandler(svc, nil)

		w := httptest.NewRecorder()
		h.Punch(w, punchForm(t, `{"type":"IN","latitude":12.97,"longitude":77.59}`, true))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, attendance.PunchType("IN"), svc.punched.Type)
		assert.InDelta(t, 12.97, svc.punched.Latitude, 1e-9)
		require.NotNil(t, svc.punched.FileHeader)
		assert.Equal(t, "proof.jpg", svc.punched.FileHeader.Filename)
	})

	t.Run("missing data", func(t *testing.T) {
		h := NewAttendanceHandler(&stubAttendanceService{}, nil)

		w := httptest.NewRecorder()
		h.Punch(w, punchForm(t, "", true))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing photo", func(t *testing.T) {
		h := NewAttendanceHandler(&stubAttendanceService{}, nil)

		w := httptest.NewRecorder()
		h.Punch(w, punchForm(t, `{"type":"IN"}`, false))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, attendance.ErrPhotoRequired.Error(), env.Error.Message)
	})

	t.Run("inactive employee", func(t *testing.T) {
		h := NewAttendanceHandler(&stubAttendanceService{err: attendance.ErrEmployeeInactive}, nil)

		w := httptest.NewRecorder()
		h.Punch(w, punchForm(t, `{"type":"OUT"}`, true))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAttendanceHandler_ListParsesFilters(t *testing.T) {
	svc := &stubAttendanceService{}
	h := NewAttendanceHandler(svc, nil)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/attendance?from=2024-03-01&employee_name=ash&department=ALL&page=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.listed.From)
	assert.Equal(t, "2024-03-01", *svc.listed.From)
	require.NotNil(t, svc.listed.EmployeeName)
	assert.Equal(t, "ash", *svc.listed.EmployeeName)
	assert.Nil(t, svc.listed.To)
	assert.Equal(t, 2, svc.listed.Page)

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/attendance?page=two", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandler_Export(t *testing.T) {
	svc := &stubAttendanceService{result: attendance.ExportResult{
		Filename:       "attendance-a_2024-03-01_2024-03-31.csv",
		ContentType:    export.ContentTypeCSV,
		Format:         "csv",
		Data:           []byte("Name,Code,Date,Type,Time\n"),
		SkippedPunches: 1,
	}}
	h := NewAttendanceHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/export?layout=FORMAT_A&format=csv&from=2024-03-01&to=2024-03-31", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, attendance.ExportLayout("FORMAT_A"), svc.exported.Layout)
	assert.Equal(t, "1", w.Header().Get(skippedPunchesHeader))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance-a_2024-03-01_2024-03-31.csv")
	assert.Equal(t, "Name,Code,Date,Type,Time\n", w.Body.String())
}

func TestAttendanceHandler_StreamDisabled(t *testing.T) {
	h := NewAttendanceHandler(&stubAttendanceService{}, nil)

	w := httptest.NewRecorder()
	h.Stream(w, httptest.NewRequest(http.MethodGet, "/api/v1/stream/punches", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandler_StreamDeliversPunches(t *testing.T) {
	hub := sse.NewHub()
	h := NewAttendanceHandler(&stubAttendanceService{hub: hub}, nil)

	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return hub.SubscriberCount("company-1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("company-1", sse.Event{Event: "punch", Data: attendance.PunchResponse{ID: "punch-9", Type: "IN"}})

	var got []string
	for len(got) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: punch") || strings.HasPrefix(line, "data: {\"id\":\"punch-9\"") {
			got = append(got, line)
		}
	}
	assert.Equal(t, "event: punch\n", got[0])
	assert.Contains(t, got[1], `"type":"IN"`)
}
