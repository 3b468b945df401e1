package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds the whole application configuration, populated from
// environment variables (and .env in development).
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Midtrans MidtransConfig
	Tripay   TripayConfig
	MinIO    MinIOConfig
	SMTP     SMTPConfig
	Checkout CheckoutConfig
	Report   ReportConfig
	Job      JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// URL returns a postgres:// DSN, used by cmd/migrate.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// =====================================================
// PAYMENT GATEWAYS
// =====================================================

type MidtransConfig struct {
	ServerKey    string // Basic auth username + notification signature key
	ClientKey    string // Exposed to the Snap.js frontend
	IsProduction bool
	FinishURL    string
}

type TripayConfig struct {
	APIKey       string
	PrivateKey   string // HMAC-SHA256 key for request and callback signatures
	MerchantCode string
	IsProduction bool
	ReturnURL    string
	CallbackURL  string
	ExpiryWindow time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SMTPConfig struct {
	Host string
	Port string
	From string
}

type CheckoutConfig struct {
	BookingPrefix string
	BookingDigits int
}

type ReportConfig struct {
	Timezone  string
	ExportTTL time.Duration // presigned URL lifetime
}

// JobConfig tunes the scheduled worker jobs.
type JobConfig struct {
	CleanupCheckoutCron   string
	RetryWebhooksCron     string
	RetryWebhooksLimit    int
	MaxWebhookRetries     int
	NotificationMaxRetry  int
	NotificationQueueName string
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Course Payments API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "course_payments"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Midtrans: MidtransConfig{
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:    getEnv("MIDTRANS_CLIENT_KEY", ""),
			IsProduction: getEnvBool("MIDTRANS_IS_PRODUCTION", false),
			FinishURL:    getEnv("MIDTRANS_FINISH_URL", "http://localhost:3000/checkout/finish"),
		},
		Tripay: TripayConfig{
			APIKey:       getEnv("TRIPAY_API_KEY", ""),
			PrivateKey:   getEnv("TRIPAY_PRIVATE_KEY", ""),
			MerchantCode: getEnv("TRIPAY_MERCHANT_CODE", ""),
			IsProduction: getEnvBool("TRIPAY_IS_PRODUCTION", false),
			ReturnURL:    getEnv("TRIPAY_RETURN_URL", "http://localhost:3000/checkout/finish"),
			CallbackURL:  getEnv("TRIPAY_CALLBACK_URL", "http://localhost:8080/api/v1/webhooks/tripay"),
			ExpiryWindow: getEnvDuration("TRIPAY_EXPIRY_WINDOW", 24*time.Hour),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "course-reports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", "localhost"),
			Port: getEnv("SMTP_PORT", "1025"),
			From: getEnv("SMTP_FROM", "noreply@courses.local"),
		},
		Checkout: CheckoutConfig{
			BookingPrefix: getEnv("BOOKING_PREFIX", "CRS"),
			BookingDigits: getEnvInt("BOOKING_DIGITS", 6),
		},
		Report: ReportConfig{
			Timezone:  getEnv("REPORT_TIMEZONE", "Asia/Jakarta"),
			ExportTTL: getEnvDuration("REPORT_EXPORT_TTL", 15*time.Minute),
		},
		Job: JobConfig{
			CleanupCheckoutCron:   getEnv("JOB_CLEANUP_CHECKOUT_CRON", "*/15 * * * *"),
			RetryWebhooksCron:     getEnv("JOB_RETRY_WEBHOOKS_CRON", "*/10 * * * *"),
			RetryWebhooksLimit:    getEnvInt("JOB_RETRY_WEBHOOKS_LIMIT", 50),
			MaxWebhookRetries:     getEnvInt("JOB_MAX_WEBHOOK_RETRIES", 5),
			NotificationMaxRetry:  getEnvInt("JOB_NOTIFICATION_MAX_RETRY", 5),
			NotificationQueueName: getEnv("JOB_NOTIFICATION_QUEUE", "default"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings that must never fall back to defaults in production.
func (c *Config) Validate() error {
	if c.Checkout.BookingDigits < 4 || c.Checkout.BookingDigits > 12 {
		return fmt.Errorf("BOOKING_DIGITS must be between 4 and 12")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Midtrans.ServerKey == "" {
			return fmt.Errorf("MIDTRANS_SERVER_KEY must be set in production")
		}
		if c.Tripay.PrivateKey == "" || c.Tripay.MerchantCode == "" {
			return fmt.Errorf("TRIPAY_PRIVATE_KEY and TRIPAY_MERCHANT_CODE must be set in production")
		}
	}

	return nil
}

// IsDevelopment reports whether mock gateways may stand in for unset keys.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
