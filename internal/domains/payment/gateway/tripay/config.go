package tripay

import (
	"fmt"
	"time"

	"course-payments/internal/config"
)

// =====================================================
// TRIPAY CONFIGURATION
// =====================================================

const (
	SandboxAPIURL    = "https://tripay.co.id/api-sandbox"
	ProductionAPIURL = "https://tripay.co.id/api"

	// DefaultExpiryWindow bounds expired_time when the config leaves it unset.
	DefaultExpiryWindow = 24 * time.Hour
)

type Config struct {
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
	ReturnURL    string
	CallbackURL  string
	ExpiryWindow time.Duration
}

func NewConfig(cfg config.TripayConfig) *Config {
	base := SandboxAPIURL
	if cfg.IsProduction {
		base = ProductionAPIURL
	}
	window := cfg.ExpiryWindow
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &Config{
		APIKey:       cfg.APIKey,
		PrivateKey:   cfg.PrivateKey,
		MerchantCode: cfg.MerchantCode,
		BaseURL:      base,
		ReturnURL:    cfg.ReturnURL,
		CallbackURL:  cfg.CallbackURL,
		ExpiryWindow: window,
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" || c.PrivateKey == "" || c.MerchantCode == "" {
		return fmt.Errorf("tripay api key, private key and merchant code are required")
	}
	return nil
}

func (c *Config) CreateTransactionURL() string {
	return c.BaseURL + "/transaction/create"
}
