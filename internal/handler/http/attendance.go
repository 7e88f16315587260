package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/handler/http/response"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
)

// maxPunchForm bounds the multipart body; the photo itself is limited by
// PunchRequest.Validate.
const maxPunchForm = 12 << 20

const streamKeepalive = 30 * time.Second

type AttendanceHandler interface {
	Punch(w http.ResponseWriter, r *http.Request)
	GetMyPunches(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetMap(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	metrics           *metrics.Metrics
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, m *metrics.Metrics) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		metrics:           m,
	}
}

// Punch implements AttendanceHandler. The body is multipart with a JSON
// `data` field and a `photo` file.
func (h *attendanceHandlerImpl) Punch(w http.ResponseWriter, r *http.Request) {
	var req attendance.PunchRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxPunchForm)
	if err := r.ParseMultipartForm(maxPunchForm); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	dataJSON := r.FormValue("data")
	if dataJSON == "" {
		response.BadRequest(w, "Field 'data' is required", nil)
		return
	}

	if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
		slog.Error("Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, attendance.ErrPhotoRequired.Error(), nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	req.File = file
	req.FileHeader = fileHeader

	result, err := h.attendanceService.Punch(r.Context(), req)
	if err != nil {
		slog.Error("Punch service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch "+result.Type+" recorded", result)
}

// GetMyPunches implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyPunches(w http.ResponseWriter, r *http.Request) {
	filter := attendance.MyPunchFilter{
		From: optionalQuery(r, "from"),
		To:   optionalQuery(r, "to"),
	}

	var ok bool
	if filter.Page, ok = queryInt(r, "page"); !ok {
		response.BadRequest(w, "invalid page parameter", nil)
		return
	}
	if filter.Limit, ok = queryInt(r, "limit"); !ok {
		response.BadRequest(w, "invalid limit parameter", nil)
		return
	}

	result, err := h.attendanceService.GetMyPunches(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.PunchFilter{
		From:         optionalQuery(r, "from"),
		To:           optionalQuery(r, "to"),
		EmployeeName: optionalQuery(r, "employee_name"),
		EmployeeCode: optionalQuery(r, "employee_code"),
		Department:   optionalQuery(r, "department"),
		Designation:  optionalQuery(r, "designation"),
	}

	var ok bool
	if filter.Page, ok = queryInt(r, "page"); !ok {
		response.BadRequest(w, "invalid page parameter", nil)
		return
	}

	result, err := h.attendanceService.ListPunches(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMap implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMap(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetMap(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	req := attendance.ExportRequest{
		Layout: attendance.ExportLayout(r.URL.Query().Get("layout")),
		Format: r.URL.Query().Get("format"),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
	}

	result, err := h.attendanceService.Export(r.Context(), req)
	if err != nil {
		slog.Error("Export service error", "error", err)
		response.HandleError(w, err)
		return
	}

	h.metrics.ReportServed("attendance_export", result.Format)
	skippedHeader(w, result.SkippedPunches)
	response.File(w, result.Filename, result.ContentType, result.Data)
}

const skippedPunchesHeader = "X-Skipped-Punches"

func skippedHeader(w http.ResponseWriter, skipped int) {
	w.Header().Set(skippedPunchesHeader, strconv.Itoa(skipped))
}

// Stream implements AttendanceHandler. It pushes the company's punches as
// server-sent events until the client goes away.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	events, cleanup, err := h.attendanceService.SubscribePunches(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode punch event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
