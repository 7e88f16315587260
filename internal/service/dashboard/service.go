package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/dashboard"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
)

const weekDays = 7

type DashboardServiceImpl struct {
	dashboard.DashboardRepository
	loc *time.Location
	now func() time.Time
}

func NewDashboardService(repo dashboard.DashboardRepository, loc *time.Location) dashboard.DashboardService {
	return &DashboardServiceImpl{
		DashboardRepository: repo,
		loc:                 loc,
		now:                 time.Now,
	}
}

// getCompanyID extracts company_id from JWT claims
func (s *DashboardServiceImpl) getCompanyID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id not found in claims")
	}
	return companyID, nil
}

// GetDashboard returns combined dashboard data using parallel goroutines
func (s *DashboardServiceImpl) GetDashboard(ctx context.Context) (*dashboard.DashboardResponse, error) {
	companyID, err := s.getCompanyID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -(weekDays - 1))

	var (
		total       int64
		daily       []dashboard.DayCount
		departments []dashboard.DepartmentCount
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		total, err = s.CountActiveEmployees(gctx, companyID)
		return err
	})

	g.Go(func() error {
		var err error
		daily, err = s.PresenceByDay(gctx, companyID, weekStart, tomorrow, s.loc.String())
		return err
	})

	g.Go(func() error {
		var err error
		departments, err = s.PresenceByDepartment(gctx, companyID, today, tomorrow)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(daily))
	for _, d := range daily {
		counts[d.Date] = d.Count
	}

	weekly := make([]dashboard.DailyPresence, 0, weekDays)
	for day := weekStart; day.Before(tomorrow); day = day.AddDate(0, 0, 1) {
		key := report.DateKey(day)
		weekly = append(weekly, dashboard.DailyPresence{
			Date:    key,
			Day:     day.Format("Mon"),
			Count:   counts[key],
			Percent: percent(counts[key], total),
		})
	}

	presentToday := counts[report.DateKey(today)]

	depts := make([]dashboard.DepartmentStat, 0, len(departments))
	for _, d := range departments {
		name := report.Unassigned
		if d.Department != nil && *d.Department != "" {
			name = *d.Department
		}
		depts = append(depts, dashboard.DepartmentStat{Name: name, Total: d.Total, Present: d.Present})
	}

	return &dashboard.DashboardResponse{
		Date:           report.DateKey(today),
		TotalEmployees: total,
		PresentToday:   presentToday,
		AbsentToday:    max(total-presentToday, 0),
		Weekly:         weekly,
		Departments:    depts,
	}, nil
}

func percent(count, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(count * 100 / total)
}
