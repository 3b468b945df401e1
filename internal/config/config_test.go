package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "CRS", cfg.Checkout.BookingPrefix)
	assert.Equal(t, 6, cfg.Checkout.BookingDigits)
	assert.Equal(t, "Asia/Jakarta", cfg.Report.Timezone)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionWithSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("MIDTRANS_SERVER_KEY", "SB-Mid-server-xxx")
	t.Setenv("TRIPAY_PRIVATE_KEY", "priv")
	t.Setenv("TRIPAY_MERCHANT_CODE", "T0001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.True(t, getEnvBool("X_BOOL", true))
	assert.Equal(t, time.Minute, getEnvDuration("X_DUR", time.Minute))
}

func TestLoadDatabaseConfig_RejectsBadDuration(t *testing.T) {
	t.Setenv("DB_RETRY_DELAY", "fast")

	_, err := LoadDatabaseConfig()
	assert.Error(t, err)
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", Database: "course_payments", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/course_payments?sslmode=disable", d.URL())
}
