package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeToken AuthMode = "token" // Bearer tokens issued by create-user
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Tasks
		Import
		Redis
		Auth
		Audit
	}

	HTTP struct {
		Port int32
		Host string
		HSTS bool // send Strict-Transport-Security on TLS requests
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Level  string
		Pretty bool // colored console output instead of JSON
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled            bool
		Workers            int
		ReleaseAfter       time.Duration
		CleanupInterval    time.Duration
		RetentionDuration  time.Duration
		TagCleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Import struct {
		MaxUploadBytes     int64
		DefaultWrapFolder  string
		TrackingParamsFile string  // optional YAML list of extra tracking parameters
		UploadRate         float64 // uploads per second per user
		UploadBurst        int
		TaskTimeout        time.Duration
		StaleAfter         time.Duration
		ReaperSchedule     string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Redis struct {
		Addr           string // empty disables the canonical cache
		Password       string
		DB             int
		CanonicalTTL   time.Duration
		ConnectTimeout time.Duration
	}
	Auth struct {
		Mode AuthMode
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_hsts", false)
	v.SetDefault("shutdown_timeout_in_seconds", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")
	v.SetDefault("task_tag_cleanup_schedule", "30 3 * * *")

	// Import defaults
	v.SetDefault("import_max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("import_default_wrap_folder", "Imported bookmarks")
	v.SetDefault("import_tracking_params_file", "")
	v.SetDefault("import_upload_rate", 0.2) // one upload every 5 seconds
	v.SetDefault("import_upload_burst", 5)
	v.SetDefault("import_task_timeout", "10m")
	v.SetDefault("import_stale_after", "30m")
	v.SetDefault("import_reaper_schedule", "*/5 * * * *")

	// Redis defaults
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_canonical_ttl", "168h")
	v.SetDefault("redis_connect_timeout", "15s")

	v.SetDefault("auth_mode", "none")

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
			HSTS: v.GetBool("HTTP_HSTS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:            v.GetBool("TASKS_ENABLED"),
			Workers:            v.GetInt("TASK_WORKERS"),
			ReleaseAfter:       v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:    v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration:  v.GetDuration("TASK_RETENTION_DURATION"),
			TagCleanupSchedule: v.GetString("TASK_TAG_CLEANUP_SCHEDULE"),
		},
		Import: Import{
			MaxUploadBytes:     v.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
			DefaultWrapFolder:  v.GetString("IMPORT_DEFAULT_WRAP_FOLDER"),
			TrackingParamsFile: v.GetString("IMPORT_TRACKING_PARAMS_FILE"),
			UploadRate:         v.GetFloat64("IMPORT_UPLOAD_RATE"),
			UploadBurst:        v.GetInt("IMPORT_UPLOAD_BURST"),
			TaskTimeout:        v.GetDuration("IMPORT_TASK_TIMEOUT"),
			StaleAfter:         v.GetDuration("IMPORT_STALE_AFTER"),
			ReaperSchedule:     v.GetString("IMPORT_REAPER_SCHEDULE"),
		},
		Redis: Redis{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			CanonicalTTL:   v.GetDuration("REDIS_CANONICAL_TTL"),
			ConnectTimeout: v.GetDuration("REDIS_CONNECT_TIMEOUT"),
		},
		Auth: Auth{
			Mode: AuthMode(v.GetString("AUTH_MODE")),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
	}
}
