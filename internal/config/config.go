package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	OAuth2Google OAuth2GoogleConfig
	Storage      StorageConfig
	Shift        ShiftConfig
	Geocode      GeocodeConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Version     string
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
	Timezone    string // IANA zone used for local calendar days
	CORSOrigins []string
}

type OAuth2GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether Google login is configured.
func (c OAuth2GoogleConfig) Enabled() bool {
	return c.ClientID != ""
}

type StorageConfig struct {
	Type     string // only "local" is supported
	BasePath string
	BaseURL  string
}

// ShiftConfig holds the default shift policy; companies may override each field.
type ShiftConfig struct {
	Start                  string // HH:MM
	End                    string // HH:MM
	LateGraceMinutes       int
	EarlyLeaveGraceMinutes int
	StandardDailyHours     string
	WeekendDays            []string
}

type GeocodeConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set by the container.
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
		slog.Debug("No .env file found, using environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "geopunch"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")
	config.App = AppConfig{
		Name:        getEnv("APP_NAME", "geopunch-api"),
		Version:     getEnv("APP_VERSION", "v0.1.0"),
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: frontendURL,
		Timezone:    getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{frontendURL}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// OAuth2 Google Configuration
	config.OAuth2Google = OAuth2GoogleConfig{
		ClientID:     getEnv("CLIENT_ID", ""),
		ClientSecret: getEnv("CLIENT_SECRET", ""),
		RedirectURL:  getEnv("REDIRECT_URL", ""),
		Scopes: getEnvSlice("SCOPES", []string{
			"https://www.googleapis.com/auth/userinfo.email",
		}),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%d/uploads", appPort)),
	}

	// Shift defaults
	lateGrace, err := strconv.Atoi(getEnv("SHIFT_LATE_GRACE_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFT_LATE_GRACE_MINUTES: %w", err)
	}
	earlyGrace, err := strconv.Atoi(getEnv("SHIFT_EARLY_LEAVE_GRACE_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFT_EARLY_LEAVE_GRACE_MINUTES: %w", err)
	}

	config.Shift = ShiftConfig{
		Start:                  getEnv("SHIFT_START", "09:00"),
		End:                    getEnv("SHIFT_END", "18:00"),
		LateGraceMinutes:       lateGrace,
		EarlyLeaveGraceMinutes: earlyGrace,
		StandardDailyHours:     getEnv("SHIFT_STANDARD_DAILY_HOURS", "8"),
		WeekendDays:            getEnvSlice("SHIFT_WEEKEND_DAYS", []string{"Saturday", "Sunday"}),
	}

	// Reverse geocoding
	geocodeTimeout, err := time.ParseDuration(getEnv("GEOCODE_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_TIMEOUT: %w", err)
	}
	config.Geocode = GeocodeConfig{
		Enabled:   getEnv("GEOCODE_ENABLED", "false") == "true",
		BaseURL:   getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		UserAgent: getEnv("GEOCODE_USER_AGENT", "geopunch-attendance/1.0"),
		Timeout:   geocodeTimeout,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.OAuth2Google.Enabled() {
		if c.OAuth2Google.ClientSecret == "" {
			return fmt.Errorf("CLIENT_SECRET is required when CLIENT_ID is set")
		}
		if c.OAuth2Google.RedirectURL == "" {
			return fmt.Errorf("REDIRECT_URL is required when CLIENT_ID is set")
		}
	}
	if c.Storage.Type != "local" {
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.ShiftPolicy(); err != nil {
		return err
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location loads the display timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// ShiftPolicy converts the shift defaults into a report.ShiftPolicy
func (c *Config) ShiftPolicy() (report.ShiftPolicy, error) {
	start, ok := company.ParseClock(c.Shift.Start)
	if !ok {
		return report.ShiftPolicy{}, fmt.Errorf("invalid SHIFT_START %q", c.Shift.Start)
	}
	end, ok := company.ParseClock(c.Shift.End)
	if !ok {
		return report.ShiftPolicy{}, fmt.Errorf("invalid SHIFT_END %q", c.Shift.End)
	}
	if end <= start {
		return report.ShiftPolicy{}, fmt.Errorf("SHIFT_END must be after SHIFT_START")
	}
	if c.Shift.LateGraceMinutes < 0 || c.Shift.EarlyLeaveGraceMinutes < 0 {
		return report.ShiftPolicy{}, fmt.Errorf("shift grace minutes must not be negative")
	}

	hours, err := decimal.NewFromString(c.Shift.StandardDailyHours)
	if err != nil || !hours.IsPositive() {
		return report.ShiftPolicy{}, fmt.Errorf("invalid SHIFT_STANDARD_DAILY_HOURS %q", c.Shift.StandardDailyHours)
	}

	weekend := make([]time.Weekday, 0, len(c.Shift.WeekendDays))
	for _, name := range c.Shift.WeekendDays {
		d, ok := company.ParseWeekday(name)
		if !ok {
			return report.ShiftPolicy{}, fmt.Errorf("invalid SHIFT_WEEKEND_DAYS entry %q", name)
		}
		weekend = append(weekend, d)
	}

	return report.ShiftPolicy{
		ShiftStart:             time.Duration(start) * time.Minute,
		ShiftEnd:               time.Duration(end) * time.Minute,
		LateGraceMinutes:       c.Shift.LateGraceMinutes,
		EarlyLeaveGraceMinutes: c.Shift.EarlyLeaveGraceMinutes,
		StandardDailyHours:     hours,
		WeekendDays:            weekend,
	}, nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
