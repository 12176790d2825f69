package razorpay

import (
	"fmt"
	"time"
)

// Config holds credentials and routing details for the provider's settlement API
type Config struct {
	BaseURL   string        // e.g. https://api.razorpay.com
	KeyID     string        // API key id, sent as the basic-auth user
	KeySecret string        // API key secret, sent as the basic-auth password
	AccountID string        // linked vendor account receiving transfers (acc_...)
	Currency  string        // currency for transfers (default INR)
	Timeout   time.Duration // deadline applied to every call
}

// DefaultConfig returns a config pointed at the production API with a 10s deadline
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.razorpay.com",
		Currency: "INR",
		Timeout:  10 * time.Second,
	}
}

// Validate reports missing credentials before any call is attempted
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}
	if c.KeyID == "" || c.KeySecret == "" {
		return fmt.Errorf("gateway key id and secret are required")
	}
	if c.AccountID == "" {
		return fmt.Errorf("vendor account id is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	return nil
}
