package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/handler/http/response"
	"github.com/geopunch/attendance-backend/internal/pkg/export"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
)

type ReportHandler interface {
	Daily(w http.ResponseWriter, r *http.Request)
	Monthly(w http.ResponseWriter, r *http.Request)
	Master(w http.ResponseWriter, r *http.Request)
	Payroll(w http.ResponseWriter, r *http.Request)
	LateEarly(w http.ResponseWriter, r *http.Request)
	Absence(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
	metrics       *metrics.Metrics
	render        func(t report.Table, format report.Format, filename string) (export.File, error)
}

func NewReportHandler(reportService report.ReportService, m *metrics.Metrics) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
		metrics:       m,
		render:        export.Render,
	}
}

func scopeFilter(r *http.Request) report.ScopeFilter {
	return report.ScopeFilter{
		Department:  r.URL.Query().Get("department"),
		Designation: r.URL.Query().Get("designation"),
	}
}

// periodRequest parses month and year, writing a 400 on malformed input.
func periodRequest(w http.ResponseWriter, r *http.Request) (report.PeriodReportRequest, bool) {
	month, ok := queryInt(r, "month")
	if !ok {
		response.BadRequest(w, "invalid month parameter", nil)
		return report.PeriodReportRequest{}, false
	}
	year, ok := queryInt(r, "year")
	if !ok {
		response.BadRequest(w, "invalid year parameter", nil)
		return report.PeriodReportRequest{}, false
	}
	return report.PeriodReportRequest{Month: month, Year: year, ScopeFilter: scopeFilter(r)}, true
}

func rangeRequest(r *http.Request) report.RangeReportRequest {
	return report.RangeReportRequest{
		From:        r.URL.Query().Get("from"),
		To:          r.URL.Query().Get("to"),
		ScopeFilter: scopeFilter(r),
	}
}

// serve renders table in the requested format. The format is checked before
// build runs so a bad format never costs a report.
func (h *reportHandlerImpl) serve(w http.ResponseWriter, r *http.Request, kind, period string, build func() (report.Table, error)) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	table, err := build()
	if err != nil {
		slog.Error("Report service error", "report", kind, "error", err)
		response.HandleError(w, err)
		return
	}

	if format == report.FormatJSON {
		skippedHeader(w, table.SkippedPunches)
		h.metrics.ReportServed(kind, string(format))
		response.Success(w, table)
		return
	}

	file, err := h.render(table, format, export.Filename(table.Name, period))
	if err != nil {
		slog.Error("Failed to render report", "report", kind, "format", format, "error", err)
		response.HandleError(w, err)
		return
	}

	skippedHeader(w, table.SkippedPunches)
	h.metrics.ReportServed(kind, string(format))
	response.File(w, file.Filename, file.ContentType, file.Data)
}

// Daily handles GET /reports/daily
func (h *reportHandlerImpl) Daily(w http.ResponseWriter, r *http.Request) {
	req := report.DailyReportRequest{Date: r.URL.Query().Get("date"), ScopeFilter: scopeFilter(r)}
	h.serve(w, r, "daily", req.Date, func() (report.Table, error) {
		return h.reportService.Daily(r.Context(), req)
	})
}

// Monthly handles GET /reports/monthly
func (h *reportHandlerImpl) Monthly(w http.ResponseWriter, r *http.Request) {
	req, ok := periodRequest(w, r)
	if !ok {
		return
	}
	h.serve(w, r, "monthly", monthPeriod(req), func() (report.Table, error) {
		return h.reportService.Monthly(r.Context(), req)
	})
}

// Master handles GET /reports/master
func (h *reportHandlerImpl) Master(w http.ResponseWriter, r *http.Request) {
	req, ok := periodRequest(w, r)
	if !ok {
		return
	}
	h.serve(w, r, "master", monthPeriod(req), func() (report.Table, error) {
		return h.reportService.Master(r.Context(), req)
	})
}

// Payroll handles GET /reports/payroll
func (h *reportHandlerImpl) Payroll(w http.ResponseWriter, r *http.Request) {
	req, ok := periodRequest(w, r)
	if !ok {
		return
	}
	h.serve(w, r, "payroll", monthPeriod(req), func() (report.Table, error) {
		return h.reportService.Payroll(r.Context(), req)
	})
}

// LateEarly handles GET /reports/late-early
func (h *reportHandlerImpl) LateEarly(w http.ResponseWriter, r *http.Request) {
	req := rangeRequest(r)
	h.serve(w, r, "late_early", req.From+"_"+req.To, func() (report.Table, error) {
		return h.reportService.LateEarly(r.Context(), req)
	})
}

// Absence handles GET /reports/absence
func (h *reportHandlerImpl) Absence(w http.ResponseWriter, r *http.Request) {
	req := rangeRequest(r)
	h.serve(w, r, "absence", req.From+"_"+req.To, func() (report.Table, error) {
		return h.reportService.Absence(r.Context(), req)
	})
}

func monthPeriod(req report.PeriodReportRequest) string {
	return fmt.Sprintf("%04d-%02d", req.Year, req.Month)
}
