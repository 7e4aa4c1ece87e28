package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Lifecycle    LifecycleConfig
	Scheduler    SchedulerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// LifecycleConfig holds the deadline windows applied to applications.
// The auto-approval window is an unconditional backstop and must cover the
// longest SLA window.
type LifecycleConfig struct {
	SLAHighHours     int
	SLAMediumHours   int
	SLALowHours      int
	AutoApprovalDays int
}

// SchedulerConfig controls the periodic background scans.
type SchedulerConfig struct {
	EscalationIntervalMinutes   int
	FinalizationIntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "case-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Lifecycle: LifecycleConfig{
			SLAHighHours:     getEnvAsInt("SLA_HIGH_HOURS", 24),
			SLAMediumHours:   getEnvAsInt("SLA_MEDIUM_HOURS", 48),
			SLALowHours:      getEnvAsInt("SLA_LOW_HOURS", 72),
			AutoApprovalDays: getEnvAsInt("AUTO_APPROVAL_DAYS", 30),
		},
		Scheduler: SchedulerConfig{
			EscalationIntervalMinutes:   getEnvAsInt("ESCALATION_INTERVAL_MINUTES", 15),
			FinalizationIntervalMinutes: getEnvAsInt("FINALIZATION_INTERVAL_MINUTES", 30),
		},
	}

	if err := cfg.Lifecycle.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects windows that would break the deadline ordering guarantee.
func (l LifecycleConfig) Validate() error {
	if l.SLAHighHours <= 0 || l.SLAMediumHours <= 0 || l.SLALowHours <= 0 {
		return fmt.Errorf("sla windows must be positive")
	}
	if l.AutoApprovalDays <= 0 {
		return fmt.Errorf("auto-approval window must be positive")
	}
	if l.AutoApprovalWindow() < l.longestSLA() {
		return fmt.Errorf("auto-approval window (%s) shorter than longest sla window (%s)",
			l.AutoApprovalWindow(), l.longestSLA())
	}
	return nil
}

// SLAWindow returns the SLA duration for a priority value. Unknown values
// fall back to the low-priority window.
func (l LifecycleConfig) SLAWindow(priority string) time.Duration {
	switch priority {
	case "HIGH":
		return time.Duration(l.SLAHighHours) * time.Hour
	case "MEDIUM":
		return time.Duration(l.SLAMediumHours) * time.Hour
	default:
		return time.Duration(l.SLALowHours) * time.Hour
	}
}

// AutoApprovalWindow returns the unconditional finalization offset.
func (l LifecycleConfig) AutoApprovalWindow() time.Duration {
	return time.Duration(l.AutoApprovalDays) * 24 * time.Hour
}

func (l LifecycleConfig) longestSLA() time.Duration {
	longest := l.SLAHighHours
	if l.SLAMediumHours > longest {
		longest = l.SLAMediumHours
	}
	if l.SLALowHours > longest {
		longest = l.SLALowHours
	}
	return time.Duration(longest) * time.Hour
}

// EscalationInterval returns the escalation scan period.
func (s SchedulerConfig) EscalationInterval() time.Duration {
	if s.EscalationIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.EscalationIntervalMinutes) * time.Minute
}

// FinalizationInterval returns the auto-approval scan period.
func (s SchedulerConfig) FinalizationInterval() time.Duration {
	if s.FinalizationIntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.FinalizationIntervalMinutes) * time.Minute
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
