package report

import "context"

// ReportService renders attendance reports for the company in the JWT claims.
type ReportService interface {
	// Daily renders Name, Status, IN, OUT for one date
	Daily(ctx context.Context, req DailyReportRequest) (Table, error)

	// Monthly renders the per-employee monthly summary
	Monthly(ctx context.Context, req PeriodReportRequest) (Table, error)

	// Master renders the employee by day grid for a month
	Master(ctx context.Context, req PeriodReportRequest) (Table, error)

	// Payroll renders working days, hours and overtime for a month
	Payroll(ctx context.Context, req PeriodReportRequest) (Table, error)

	// LateEarly lists days with late arrival or early departure
	LateEarly(ctx context.Context, req RangeReportRequest) (Table, error)

	// Absence lists absent, missing-punch and mislabeled days
	Absence(ctx context.Context, req RangeReportRequest) (Table, error)
}
