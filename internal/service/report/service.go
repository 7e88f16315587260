package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/attendance"
	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	punchRepo    attendance.PunchRepository
	companyRepo  company.CompanyRepository
	defaults     report.ShiftPolicy
	loc          *time.Location
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewReportService(
	employeeRepo employee.EmployeeRepository,
	punchRepo attendance.PunchRepository,
	companyRepo company.CompanyRepository,
	defaults report.ShiftPolicy,
	loc *time.Location,
	m *metrics.Metrics,
) report.ReportService {
	return &ReportServiceImpl{
		employeeRepo: employeeRepo,
		punchRepo:    punchRepo,
		companyRepo:  companyRepo,
		defaults:     defaults,
		loc:          loc,
		metrics:      m,
		now:          time.Now,
	}
}

// getCompanyIDFromContext extracts company_id from JWT claims
func getCompanyIDFromContext(ctx context.Context) (string, error) {
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

func (s *ReportServiceImpl) Daily(ctx context.Context, req report.DailyReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	return s.run(ctx, "daily", req.Query(companyID, s.loc), func(set DayRecordSet, _ report.ShiftPolicy) report.Table {
		return DailyTable(set)
	})
}

func (s *ReportServiceImpl) Monthly(ctx context.Context, req report.PeriodReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	return s.run(ctx, "monthly", req.Query(companyID, s.loc, s.now()), MonthlyTable)
}

func (s *ReportServiceImpl) Master(ctx context.Context, req report.PeriodReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	query := req.Query(companyID, s.loc, s.now())
	return s.run(ctx, "master", query, func(set DayRecordSet, policy report.ShiftPolicy) report.Table {
		return MasterGrid(set, query.Columns(), policy)
	})
}

func (s *ReportServiceImpl) Payroll(ctx context.Context, req report.PeriodReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	return s.run(ctx, "payroll", req.Query(companyID, s.loc, s.now()), PayrollTable)
}

func (s *ReportServiceImpl) LateEarly(ctx context.Context, req report.RangeReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	return s.run(ctx, "late_early", req.Query(companyID, s.loc), func(set DayRecordSet, _ report.ShiftPolicy) report.Table {
		return LateEarlyTable(set)
	})
}

func (s *ReportServiceImpl) Absence(ctx context.Context, req report.RangeReportRequest) (report.Table, error) {
	if err := req.Validate(); err != nil {
		return report.Table{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return report.Table{}, err
	}

	return s.run(ctx, "absence", req.Query(companyID, s.loc), AbsenceTable)
}

type renderFunc func(set DayRecordSet, policy report.ShiftPolicy) report.Table

// run loads the inputs for query and feeds them through the pipeline.
func (s *ReportServiceImpl) run(ctx context.Context, kind string, query report.ReportQuery, render renderFunc) (report.Table, error) {
	start := time.Now()

	in, err := s.load(ctx, query)
	if err != nil {
		return report.Table{}, err
	}

	if err := ctx.Err(); err != nil {
		return report.Table{}, err
	}
	set := BuildDayRecords(query, in.employees, in.punches, in.policy)

	if err := ctx.Err(); err != nil {
		return report.Table{}, err
	}
	table := render(set, in.policy)

	if set.Skipped > 0 {
		slog.Warn("skipped malformed punches", "report", kind, "company_id", query.CompanyID(), "count", set.Skipped)
	}
	s.metrics.ObserveReport(kind, time.Since(start), set.Skipped)

	return table, nil
}

type reportInput struct {
	employees []report.EmployeeRef
	punches   []attendance.Punch
	policy    report.ShiftPolicy
}

// load fetches employees, punches and the company's shift policy in parallel.
func (s *ReportServiceImpl) load(ctx context.Context, query report.ReportQuery) (reportInput, error) {
	var in reportInput
	companyID := query.CompanyID()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		employees, err := s.employeeRepo.ListActive(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}
		refs := make([]report.EmployeeRef, 0, len(employees))
		for _, e := range employees {
			refs = append(refs, report.NewEmployeeRef(e.ID, e.Name, e.EmployeeCode, e.Department, e.Designation))
		}
		in.employees = refs
		return nil
	})

	g.Go(func() error {
		start, end := query.Bounds()
		punches, err := s.punchRepo.ListInRange(gctx, companyID, start, end)
		if err != nil {
			return fmt.Errorf("failed to list punches: %w", err)
		}
		in.punches = punches
		return nil
	})

	g.Go(func() error {
		c, err := s.companyRepo.GetByID(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get company: %w", err)
		}
		in.policy = c.EffectivePolicy(s.defaults)
		return nil
	})

	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return reportInput{}, err
		case errors.Is(err, company.ErrCompanyNotFound):
			return reportInput{}, err
		}
		slog.Error("report inputs unavailable", "company_id", companyID, "error", err)
		return reportInput{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
	}

	return in, nil
}
