package midtrans

import (
	"fmt"

	"course-payments/internal/config"
)

// =====================================================
// MIDTRANS CONFIGURATION
// =====================================================

const (
	SandboxSnapURL    = "https://app.sandbox.midtrans.com"
	ProductionSnapURL = "https://app.midtrans.com"
)

type Config struct {
	ServerKey string // basic auth username and signature key
	BaseURL   string
	FinishURL string
}

func NewConfig(cfg config.MidtransConfig) *Config {
	base := SandboxSnapURL
	if cfg.IsProduction {
		base = ProductionSnapURL
	}
	return &Config{
		ServerKey: cfg.ServerKey,
		BaseURL:   base,
		FinishURL: cfg.FinishURL,
	}
}

func (c *Config) Validate() error {
	if c.ServerKey == "" {
		return fmt.Errorf("midtrans server key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("midtrans base url is required")
	}
	return nil
}

func (c *Config) TransactionsURL() string {
	return c.BaseURL + "/snap/v1/transactions"
}
