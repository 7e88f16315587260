package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/geopunch/attendance-backend/internal/config"
	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/handler/http/middleware"
	"github.com/geopunch/attendance-backend/internal/pkg/jwt"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Auth       AuthHandler
	Company    CompanyHandler
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Report     ReportHandler
	Dashboard  DashboardHandler
}

func NewRouter(app config.AppConfig, JWTService jwt.Service, m *metrics.Metrics, uploadsDir string, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition", skippedPunchesHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Photos are embedded with <img>, which cannot set headers, so ?jwt= is accepted too
	if uploadsDir != "" {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)
			r.Method(http.MethodGet, "/uploads/*", newPhotoServer(uploadsDir))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentEncoding("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)
			r.Route("/oauth/callback", func(r chi.Router) {
				r.Get("/google", h.Auth.OAuthCallbackGoogle)
			})

			r.Route("/login", func(r chi.Router) {
				r.Post("/", h.Auth.Login)
				r.Post("/employee-code", h.Auth.LoginWithEmployeeCode)
				r.Route("/oauth", func(r chi.Router) {
					r.Get("/google", h.Auth.LoginWithGoogle)
				})
			})
		})

		// EventSource cannot set headers, so the live feed also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)
			r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
			r.Get("/stream/punches", h.Attendance.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/companies", func(r chi.Router) {
				r.With(middleware.RequirePending).Post("/", h.Company.Create)

				r.Route("/my", func(r chi.Router) {
					r.Use(middleware.RequireCompany)
					r.With(middleware.RequirePermission(user.PermissionCompanyView)).Get("/", h.Company.GetMy)
					r.With(middleware.RequirePermission(user.PermissionCompanyView)).Get("/shift-policy", h.Company.GetShiftPolicy)

					// Owner only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireOwner)
						r.Put("/", h.Company.UpdateMy)
						r.Put("/shift-policy", h.Company.UpdateShiftPolicy)
					})
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCompany)

				r.Route("/employees", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionEmployeeViewAll))
						r.Get("/", h.Employee.ListEmployees)
						r.Get("/filter-options", h.Employee.GetFilterOptions)
						r.Get("/{id}", h.Employee.GetEmployee)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionEmployeeManage))
						r.Post("/", h.Employee.CreateEmployee)
						r.Put("/{id}", h.Employee.UpdateEmployee)
						r.Delete("/{id}", h.Employee.DeleteEmployee)
					})
				})

				r.Route("/attendance", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/punch", h.Attendance.Punch)
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/me", h.Attendance.GetMyPunches)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
						r.Get("/", h.Attendance.List)
						r.Get("/map", h.Attendance.GetMap)
					})
					r.With(middleware.RequirePermission(user.PermissionAttendanceExport)).Get("/export", h.Attendance.Export)
				})

				r.Route("/reports", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsView))
					r.Get("/daily", h.Report.Daily)
					r.Get("/monthly", h.Report.Monthly)
					r.Get("/master", h.Report.Master)
					r.Get("/payroll", h.Report.Payroll)
					r.Get("/late-early", h.Report.LateEarly)
					r.Get("/absence", h.Report.Absence)
				})

				r.With(middleware.RequirePermission(user.PermissionDashboardView)).Get("/dashboard", h.Dashboard.GetDashboard)
			})
		})
	})
	return r
}
