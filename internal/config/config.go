package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingSetting is wrapped by Load for every absent required setting.
var ErrMissingSetting = errors.New("required setting is missing")

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	PasswordSecret string
	MasterPassword string

	AirtableAPIKey          string
	AirtableBaseID          string
	AirtableAPIURL          string
	AirtableTimeout         time.Duration
	StudentsTable           string
	StudentsView            string
	AttendanceTable         string
	AttendanceView          string
	AttendanceNameField     string
	AttendanceCourseField   string
	AttendanceCutoff        time.Time
	DirectoryRefresh        time.Duration
	DirectoryRefreshTimeout time.Duration

	AllowedOrigins  []string
	LoginRateMax    int
	LoginRateWindow time.Duration
	ClassReportJobs int
	RedisURL        string
	RefreshChannel  string
	DatabaseURL     string
	NATSURL         string
	NATSSubjectBase string
	JWTSecret       string
	TokenTTL        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Student Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("port", "3001")
	v.SetDefault("airtable.api_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.timeout", "10s")
	v.SetDefault("airtable.students_table", "Students")
	v.SetDefault("airtable.attendance_table", "Attendance")
	v.SetDefault("airtable.attendance_view", "Grid view")
	v.SetDefault("airtable.attendance_name_field", "PreferredNameText")
	v.SetDefault("airtable.course_field", "Current Course (from Student)")
	v.SetDefault("attendance.cutoff", "2025-09-07")
	v.SetDefault("directory.refresh_interval", "5m")
	v.SetDefault("directory.refresh_timeout", "30s")
	v.SetDefault("directory.refresh_channel", "portal:directory:refresh")
	v.SetDefault("login.rate_limit_max", 50)
	v.SetDefault("login.rate_limit_window", "15m")
	v.SetDefault("class.report_concurrency", 4)
	v.SetDefault("nats.subject_base", "portal")
	v.SetDefault("portal.token_ttl", "12h")

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               strings.TrimSpace(v.GetString("port")),
		PasswordSecret:        v.GetString("portal.pw_secret"),
		MasterPassword:        v.GetString("master.portal_pw"),
		AirtableAPIKey:        strings.TrimSpace(v.GetString("airtable.api_key")),
		AirtableBaseID:        strings.TrimSpace(v.GetString("airtable.base_id")),
		AirtableAPIURL:        strings.TrimRight(strings.TrimSpace(v.GetString("airtable.api_url")), "/"),
		StudentsTable:         v.GetString("airtable.students_table"),
		StudentsView:          v.GetString("airtable.students_view"),
		AttendanceTable:       v.GetString("airtable.attendance_table"),
		AttendanceView:        v.GetString("airtable.attendance_view"),
		AttendanceNameField:   v.GetString("airtable.attendance_name_field"),
		AttendanceCourseField: v.GetString("airtable.course_field"),
		AllowedOrigins:        splitList(v.GetString("allowed.origins")),
		LoginRateMax:          v.GetInt("login.rate_limit_max"),
		ClassReportJobs:       v.GetInt("class.report_concurrency"),
		RedisURL:              strings.TrimSpace(v.GetString("redis.url")),
		RefreshChannel:        v.GetString("directory.refresh_channel"),
		DatabaseURL:           strings.TrimSpace(v.GetString("database.url")),
		NATSURL:               strings.TrimSpace(v.GetString("nats.url")),
		NATSSubjectBase:       v.GetString("nats.subject_base"),
		JWTSecret:             v.GetString("portal.jwt_secret"),
	}

	missing := make([]string, 0, 3)
	if cfg.PasswordSecret == "" {
		missing = append(missing, "PORTAL_PW_SECRET")
	}
	if cfg.AirtableAPIKey == "" {
		missing = append(missing, "AIRTABLE_API_KEY")
	}
	if cfg.AirtableBaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	durations := []struct {
		key    string
		env    string
		target *time.Duration
	}{
		{"airtable.timeout", "AIRTABLE_TIMEOUT", &cfg.AirtableTimeout},
		{"directory.refresh_interval", "DIRECTORY_REFRESH_INTERVAL", &cfg.DirectoryRefresh},
		{"directory.refresh_timeout", "DIRECTORY_REFRESH_TIMEOUT", &cfg.DirectoryRefreshTimeout},
		{"login.rate_limit_window", "LOGIN_RATE_LIMIT_WINDOW", &cfg.LoginRateWindow},
		{"portal.token_ttl", "PORTAL_TOKEN_TTL", &cfg.TokenTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be a positive duration", d.env)
		}
		*d.target = parsed
	}

	cutoff, err := time.Parse("2006-01-02", strings.TrimSpace(v.GetString("attendance.cutoff")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ATTENDANCE_CUTOFF: %w", err)
	}
	cfg.AttendanceCutoff = cutoff

	if cfg.LoginRateMax <= 0 {
		cfg.LoginRateMax = 50
	}
	if cfg.ClassReportJobs <= 0 {
		cfg.ClassReportJobs = 4
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "3001"
	}

	return cfg, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
