package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geopunch/attendance-backend/internal/config"
	appHTTP "github.com/geopunch/attendance-backend/internal/handler/http"
	"github.com/geopunch/attendance-backend/internal/pkg/cron"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/geopunch/attendance-backend/internal/pkg/geocode"
	"github.com/geopunch/attendance-backend/internal/pkg/jwt"
	"github.com/geopunch/attendance-backend/internal/pkg/metrics"
	"github.com/geopunch/attendance-backend/internal/pkg/oauth"
	"github.com/geopunch/attendance-backend/internal/pkg/sse"
	"github.com/geopunch/attendance-backend/internal/pkg/storage"
	"github.com/geopunch/attendance-backend/internal/repository/postgresql"
	attendanceService "github.com/geopunch/attendance-backend/internal/service/attendance"
	serviceAuth "github.com/geopunch/attendance-backend/internal/service/auth"
	serviceCompany "github.com/geopunch/attendance-backend/internal/service/company"
	dashboardService "github.com/geopunch/attendance-backend/internal/service/dashboard"
	employeeService "github.com/geopunch/attendance-backend/internal/service/employee"
	"github.com/geopunch/attendance-backend/internal/service/file"
	reportService "github.com/geopunch/attendance-backend/internal/service/report"
)

// revoked refresh tokens are kept this long before the purge job removes them
const refreshTokenRetention = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", cfg.App.Name)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Error applying schema: ", err)
	}

	// Both were checked by config.Validate
	loc, _ := cfg.Location()
	shiftPolicy, _ := cfg.ShiftPolicy()

	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	JWTRepository := postgresql.NewJWTRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	punchRepo := postgresql.NewPunchRepository(db, loc)
	dashboardRepo := postgresql.NewDashboardRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration, cfg.App.Env == "production")

	var googleService oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		googleService = oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)
	}

	var fileStorage storage.FileStorage
	var uploadsDir string
	switch cfg.Storage.Type {
	case "local":
		local, err := storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage: ", err)
		}
		fileStorage = local
		uploadsDir = local.BasePath()
	default:
		log.Fatal("Unsupported storage type: ", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	var geocoder geocode.Resolver
	if cfg.Geocode.Enabled {
		geocoder = geocode.NewNominatimClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout)
	}

	appMetrics := metrics.New()
	punchFeed := sse.NewHub()

	authService := serviceAuth.NewAuthService(db, userRepo, companyRepo, employeeRepo, JWTService, JWTRepository)
	companyService := serviceCompany.NewCompanyService(db, companyRepo, userRepo, shiftPolicy)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	attendanceSvc := attendanceService.NewAttendanceService(punchRepo, employeeRepo, fileService, geocoder, punchFeed, appMetrics, loc)
	reportSvc := reportService.NewReportService(employeeRepo, punchRepo, companyRepo, shiftPolicy, loc, appMetrics)
	dashboardSvc := dashboardService.NewDashboardService(dashboardRepo, loc)

	router := appHTTP.NewRouter(cfg.App, JWTService, appMetrics, uploadsDir, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(JWTService, authService, googleService, cfg.App.FrontendURL, cfg.App.Env == "production"),
		Company:    appHTTP.NewCompanyHandler(companyService),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, appMetrics),
		Report:     appHTTP.NewReportHandler(reportSvc, appMetrics),
		Dashboard:  appHTTP.NewDashboardHandler(dashboardSvc),
	})

	scheduler := cron.NewScheduler()
	cron.NewTokenJobs(JWTRepository, refreshTokenRetention).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", srv.Addr, "env", cfg.App.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
