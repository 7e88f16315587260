package http

import (
	"net/http"

	"github.com/geopunch/attendance-backend/internal/domain/dashboard"
	"github.com/geopunch/attendance-backend/internal/handler/http/response"
)

type DashboardHandler interface {
	// GetDashboard returns headcount, today's presence, the last 7 days and departments
	GetDashboard(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

// GetDashboard handles GET /dashboard
func (h *dashboardHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.GetDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
