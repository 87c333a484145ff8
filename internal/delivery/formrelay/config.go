// internal/delivery/formrelay/config.go
package formrelay

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Endpoint      string
	OperatorEmail string
	Subject       string
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint: "https://formsubmit.co",
		Subject:  "New Nominee Director Application",
		Timeout:  30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OperatorEmail == "" {
		return fmt.Errorf("operator email is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute URL: %q", c.Endpoint)
	}
	return nil
}
